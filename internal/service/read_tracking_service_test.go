package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/housing-board-api/internal/dto"
	"github.com/noah-isme/housing-board-api/pkg/cache"
	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

type viewMetricsStub struct {
	mu      sync.Mutex
	newOnes int
	dups    int
}

func (m *viewMetricsStub) ObserveView(inserted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inserted {
		m.newOnes++
		return
	}
	m.dups++
}

func TestReadTrackingMarkReadIsIdempotent(t *testing.T) {
	repo := newViewStoreStub()
	metrics := &viewMetricsStub{}
	svc := NewReadTrackingService(repo, nil, metrics, nil, zap.NewNop())

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 2}))
	}

	readers, err := svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sasha"}, readers)
	assert.Len(t, repo.receipts, 1)
	assert.Equal(t, 1, metrics.newOnes)
	assert.Equal(t, 4, metrics.dups)
}

func TestReadTrackingMarkReadConcurrentCallers(t *testing.T) {
	repo := newViewStoreStub()
	svc := NewReadTrackingService(repo, nil, nil, nil, zap.NewNop())

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 1})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, repo.receipts, 1)
	assert.Equal(t, 20, repo.calls)
}

func TestReadTrackingReadersMatchSuccessfulRecords(t *testing.T) {
	repo := newViewStoreStub()
	svc := NewReadTrackingService(repo, nil, nil, nil, zap.NewNop())

	require.NoError(t, svc.MarkRead(context.Background(), 7, dto.MarkReadRequest{StudentID: 1}))
	require.NoError(t, svc.MarkRead(context.Background(), 7, dto.MarkReadRequest{StudentID: 3}))
	require.NoError(t, svc.MarkRead(context.Background(), 7, dto.MarkReadRequest{StudentID: 1}))
	require.NoError(t, svc.MarkRead(context.Background(), 8, dto.MarkReadRequest{StudentID: 2}))

	readers, err := svc.Readers(context.Background(), 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Gio", "Luuk"}, readers)

	empty, err := svc.Readers(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestReadTrackingValidation(t *testing.T) {
	repo := newViewStoreStub()
	svc := NewReadTrackingService(repo, nil, nil, nil, zap.NewNop())

	err := svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	err = svc.MarkRead(context.Background(), 0, dto.MarkReadRequest{StudentID: 1})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	_, err = svc.Readers(context.Background(), -1)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Zero(t, repo.calls)
}

func TestReadTrackingErrors(t *testing.T) {
	repo := newViewStoreStub()
	svc := NewReadTrackingService(repo, nil, nil, nil, zap.NewNop())

	err := svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 99})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	repo.recordErr = errors.New("disk full")
	err = svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStore))
	assert.Contains(t, err.Error(), "disk full")

	repo.listErr = errors.New("timeout")
	_, err = svc.Readers(context.Background(), 5)
	assert.True(t, errors.Is(err, appErrors.ErrStore))
}

func TestReadTrackingCacheInvalidatedOnFirstRead(t *testing.T) {
	repo := newViewStoreStub()
	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewReadTrackingService(repo, cacheSvc, nil, nil, zap.NewNop())
	genKey := cache.ReadersGenerationKey(5)

	require.NoError(t, svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 1}))
	assert.Equal(t, int64(1), cacheRepo.counters[genKey])
	readers, err := svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gio"}, readers)
	cached, ok := cacheRepo.entry(cache.ReadersKey(5, 1))
	require.True(t, ok)
	assert.Equal(t, []string{"Gio"}, cached)

	readers, err = svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gio"}, readers)
	assert.Equal(t, 1, cacheRepo.hitCount())

	require.NoError(t, svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 2}))
	assert.Equal(t, int64(2), cacheRepo.counters[genKey])

	readers, err = svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gio", "Sasha"}, readers)

	require.NoError(t, svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 2}))
	assert.Equal(t, int64(2), cacheRepo.counters[genKey])
}

func TestReadTrackingCachedEmptyListIsHit(t *testing.T) {
	repo := newViewStoreStub()
	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewReadTrackingService(repo, cacheSvc, nil, nil, zap.NewNop())

	readers, err := svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, readers)

	readers, err = svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, readers)
	assert.Empty(t, readers)
	assert.Equal(t, 1, cacheRepo.hitCount())

	require.NoError(t, svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 3}))
	readers, err = svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Luuk"}, readers)
}

func TestReadTrackingReadersRacingFirstReadIsNotCached(t *testing.T) {
	inner := newViewStoreStub()
	cacheRepo := newMemoryCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)

	warm := NewReadTrackingService(inner, cacheSvc, nil, nil, zap.NewNop())
	require.NoError(t, warm.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 1}))

	gated := newGatedViewStore(inner)
	svc := NewReadTrackingService(gated, cacheSvc, nil, nil, zap.NewNop())

	type result struct {
		names []string
		err   error
	}
	slow := make(chan result, 1)
	go func() {
		names, err := svc.Readers(context.Background(), 5)
		slow <- result{names, err}
	}()

	select {
	case <-gated.listed:
	case <-time.After(2 * time.Second):
		t.Fatal("readers lookup never reached the store")
	}
	require.NoError(t, svc.MarkRead(context.Background(), 5, dto.MarkReadRequest{StudentID: 2}))
	close(gated.release)

	res := <-slow
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Gio"}, res.names)

	readers, err := svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gio", "Sasha"}, readers)

	readers, err = svc.Readers(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gio", "Sasha"}, readers)
}
