package tourdex

import (
	"context"

	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/tourdex/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn       func(ctx context.Context, req *request.Request) (result.Response, error)
	autocompleteFn func(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (result.Response, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearchUC) Autocomplete(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error) {
	return m.autocompleteFn(ctx, prefix, limit)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}
