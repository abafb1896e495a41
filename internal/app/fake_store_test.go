package service_test

import (
	"context"
	"io"
	"sync"

	"github.com/groupscholar/cohort-early-warning/internal/adapters/repository"
	"github.com/groupscholar/cohort-early-warning/internal/domain/model"
)

// fakeStore filters an in-memory slice the way the Postgres queries do.
type fakeStore struct {
	mu       sync.Mutex
	signals  []model.SignalRecord
	trends   []model.SignalTrend
	filters  []repository.Filter
	err      error
	imported string
	result   repository.ImportResult
}

func (f *fakeStore) Migrate(context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"0001_init"}, nil
}

func (f *fakeStore) Seed(context.Context) (repository.SeedResult, error) {
	return repository.SeedResult{Scholars: 3, Inserted: 3}, f.err
}

func (f *fakeStore) ImportCSV(_ context.Context, r io.Reader) (repository.ImportResult, error) {
	if f.err != nil {
		return repository.ImportResult{}, f.err
	}
	body, _ := io.ReadAll(r)
	f.imported = string(body)
	return f.result, nil
}

func (f *fakeStore) FetchSignals(_ context.Context, filter repository.Filter) ([]model.SignalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	out := []model.SignalRecord{}
	for _, s := range f.signals {
		if s.OccurredAt.Before(filter.Since) {
			continue
		}
		if filter.Cohort != "" && s.Cohort != filter.Cohort {
			continue
		}
		if filter.Email != "" && s.ScholarEmail != filter.Email {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) FetchWeeklyTrends(context.Context, repository.Filter) ([]model.SignalTrend, error) {
	return f.trends, f.err
}

func (f *fakeStore) Ping(context.Context) error { return f.err }

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) lastFilter() repository.Filter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters[len(f.filters)-1]
}
