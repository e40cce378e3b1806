package tourdex

import "github.com/kailas-cloud/tourdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation        = domain.ErrValidation
	ErrCorpusUnavailable = domain.ErrCorpusUnavailable
	ErrSearchTimeout     = domain.ErrSearchTimeout
)
