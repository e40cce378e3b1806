package health

import "context"

// CorpusPinger checks corpus store availability.
type CorpusPinger interface {
	Ping(ctx context.Context) error
}

// ExpansionChecker reports whether the expansion table failed to load.
type ExpansionChecker interface {
	Degraded() bool
}
