package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates search works with reduced quality.
	Degraded Status = "degraded"
	// Unhealthy indicates searches cannot be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckDegraded indicates a component running in fallback mode.
	CheckDegraded CheckResult = "degraded"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	corpus    CorpusPinger
	expansion ExpansionChecker
}

// New creates a Service. expansion can be nil.
func New(corpus CorpusPinger, expansion ExpansionChecker) *Service {
	return &Service{corpus: corpus, expansion: expansion}
}

// Check runs health checks against all components.
// A failing corpus makes the service unhealthy; a degraded expansion table does not.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.corpus.Ping(ctx); err != nil {
		checks["corpus"] = CheckError
	} else {
		checks["corpus"] = CheckOK
	}

	if s.expansion != nil {
		if s.expansion.Degraded() {
			checks["expansion"] = CheckDegraded
		} else {
			checks["expansion"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case checks["corpus"] == CheckError:
		status = Unhealthy
	case checks["expansion"] == CheckDegraded:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
