package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/domain"
)

type fakePublisher struct {
	name     string
	items    []*domain.Lehrmittel
	fetchErr error
}

func (f *fakePublisher) Name() string { return f.name }

func (f *fakePublisher) Fetch(context.Context) ([]*domain.Lehrmittel, error) {
	return f.items, f.fetchErr
}

func (f *fakePublisher) HealthCheck(context.Context) error { return nil }

type fakeLehrmittelRepo struct {
	upserted  []*domain.Lehrmittel
	upsertErr error
}

func (f *fakeLehrmittelRepo) BulkUpsert(_ context.Context, items []*domain.Lehrmittel) error {
	f.upserted = append(f.upserted, items...)
	return f.upsertErr
}

func (f *fakeLehrmittelRepo) Count(context.Context) (int64, error) {
	return int64(len(f.upserted)), nil
}

func TestSyncAll_PartialFailure(t *testing.T) {
	repo := &fakeLehrmittelRepo{}
	svc := NewCatalogSyncService(repo, []domain.CatalogProvider{
		&fakePublisher{name: "lmvz", items: []*domain.Lehrmittel{
			domain.NewLehrmittel("lmvz", "mathwelt-1", "Mathwelt 1"),
		}},
		&fakePublisher{name: "klett", fetchErr: errors.New("timeout")},
	}, zap.NewNop())

	results := svc.SyncAll(context.Background())
	require.Len(t, results, 2)

	byName := map[string]SyncResult{}
	for _, r := range results {
		byName[r.Publisher] = r
	}

	assert.NoError(t, byName["lmvz"].Error)
	assert.Equal(t, 1, byName["lmvz"].Count)
	assert.Error(t, byName["klett"].Error)
	assert.Len(t, repo.upserted, 1, "healthy publisher still imports")
}

func TestSyncPublisher_Known(t *testing.T) {
	repo := &fakeLehrmittelRepo{}
	svc := NewCatalogSyncService(repo, []domain.CatalogProvider{
		&fakePublisher{name: "lmvz", items: []*domain.Lehrmittel{
			domain.NewLehrmittel("lmvz", "sprachland", "Sprachland"),
			domain.NewLehrmittel("lmvz", "mathwelt-2", "Mathwelt 2"),
		}},
	}, zap.NewNop())

	result, err := svc.SyncPublisher(context.Background(), "lmvz")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Count)
}

func TestSyncPublisher_Unknown(t *testing.T) {
	svc := NewCatalogSyncService(&fakeLehrmittelRepo{}, nil, zap.NewNop())

	result, err := svc.SyncPublisher(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestSyncPublisher_UpsertFailure(t *testing.T) {
	repo := &fakeLehrmittelRepo{upsertErr: errors.New("constraint violation")}
	svc := NewCatalogSyncService(repo, []domain.CatalogProvider{
		&fakePublisher{name: "lmvz", items: []*domain.Lehrmittel{
			domain.NewLehrmittel("lmvz", "x", "X"),
		}},
	}, zap.NewNop())

	result, err := svc.SyncPublisher(context.Background(), "lmvz")
	require.Error(t, err)
	assert.Nil(t, result)
}
