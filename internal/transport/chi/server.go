// Package chi exposes the search API over HTTP with the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/logger"
	healthuc "github.com/kailas-cloud/tourdex/internal/usecase/health"
)

// maxBodyBytes caps POST /search bodies.
const maxBodyBytes = 64 << 10

// statusClientClosedRequest is reported when the caller went away mid-search.
const statusClientClosedRequest = 499

// Searcher runs searches and autocomplete (consumer interface).
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
	Autocomplete(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error)
}

// HealthChecker reports component health (consumer interface).
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search API.
type Server struct {
	search        Searcher
	health        HealthChecker
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker) *Server {
	return &Server{
		search: search,
		health: health,
		errorHandlers: []errorHandler{
			validationHandler,
			sentinelHandler(domain.ErrCorpusUnavailable,
				http.StatusServiceUnavailable, ErrorResponseCodeCorpusUnavailable),
			sentinelHandler(domain.ErrSearchTimeout,
				http.StatusGatewayTimeout, ErrorResponseCodeSearchTimeout),
			sentinelHandler(context.Canceled,
				statusClientClosedRequest, ErrorResponseCodeCanceled),
		},
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chirouter.Router) {
		r.Get("/search", s.SearchGet)
		r.Post("/search", s.SearchPost)
		r.Get("/autocomplete", s.Autocomplete)
	})
}

// SearchGet handles GET /api/v1/search.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := bindSearchQuery(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.serveSearch(w, r, &req)
}

// SearchPost handles POST /api/v1/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "invalid request body")
		return
	}
	s.serveSearch(w, r, &req)
}

func (s *Server) serveSearch(w http.ResponseWriter, r *http.Request, body *SearchRequest) {
	req, err := request.New(body.toParams())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFromDomain(&resp))
}

// Autocomplete handles GET /api/v1/autocomplete.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		prefix string
		limit  *int
	)
	if err := bindQuery(q, "q", &prefix); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := bindQuery(q, "limit", &limit); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	n := 0
	if limit != nil {
		if *limit < 1 {
			s.handleDomainError(w, r, domain.NewValidationError("limit", "must be positive"))
			return
		}
		n = *limit
	}

	suggestions, err := s.search.Autocomplete(r.Context(), prefix, n)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AutocompleteResponse{
		Query:       prefix,
		Suggestions: suggestionsFromDomain(suggestions),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler reports the offending field without exposing internals.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, ve.Error())
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, domain.ErrValidation.Error())
		return true
	}
	return false
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func searchResponseFromDomain(resp *result.Response) SearchResponse {
	posts := make([]Post, len(resp.Results))
	for i := range resp.Results {
		posts[i] = postFromDomain(&resp.Results[i])
	}
	expansion := resp.Expansion
	if expansion == nil {
		expansion = []string{}
	}
	return SearchResponse{
		Query:       resp.Query,
		Expansion:   expansion,
		Posts:       posts,
		Suggestions: suggestionsFromDomain(resp.Suggestions),
		LatencyMs:   resp.Latency.Milliseconds(),
		TotalCount:  resp.TotalCount,
	}
}

func postFromDomain(r *result.Ranked) Post {
	doc := &r.Document
	loc := Location{Name: doc.Name(), Province: doc.Province()}
	if p := doc.Location(); p != nil {
		lat, lng := p.Lat, p.Lon
		loc.Lat, loc.Lng = &lat, &lng
	}
	return Post{
		ID:            doc.ID(),
		Name:          doc.Name(),
		Caption:       doc.Caption(),
		Category:      doc.Category(),
		Tags:          doc.Tags(),
		Rating:        doc.Rating(),
		MatchedFields: []string{r.Match.MatchedField()},
		Location:      loc,
		LikeCount:     doc.LikeCount(),
		CommentCount:  doc.CommentCount(),
		CreatedAt:     doc.CreatedAt(),
		Score:         r.Score,
		DistanceKm:    r.DistanceKm,
	}
}

func suggestionsFromDomain(in []result.Suggestion) []Suggestion {
	out := make([]Suggestion, len(in))
	for i, s := range in {
		out[i] = Suggestion{Type: string(s.Type), Text: s.Text, ID: s.DocumentID}
	}
	return out
}
