package retriever_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/retriever"
)

type stubProvider struct {
	mu        sync.Mutex
	records   []model.PaperRecord
	searchErr error
	failIDs   map[string]bool
	delay     time.Duration
	downloads map[string]int
}

func (p *stubProvider) Search(ctx context.Context, query string, sort model.SortOrder, maxResults int) ([]model.PaperRecord, error) {
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	return p.records, nil
}

func (p *stubProvider) Download(ctx context.Context, record model.PaperRecord, w io.Writer) error {
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	p.mu.Lock()
	if p.downloads == nil {
		p.downloads = make(map[string]int)
	}
	p.downloads[record.ID]++
	p.mu.Unlock()

	if p.failIDs[record.ID] {
		return errors.New("download refused")
	}
	_, err := w.Write([]byte("pdf bytes for " + record.ID))
	return err
}

func (p *stubProvider) downloadCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.downloads[id]
}

func paperIn(year int, id string) model.PaperRecord {
	return model.PaperRecord{
		ID:        id,
		Title:     "Paper " + id,
		Published: time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC),
		PDFURL:    "https://example.org/pdf/" + id,
	}
}

func newTestRetriever(t *testing.T, provider *stubProvider, concurrency int) *retriever.Retriever {
	store, err := retriever.NewFSStore(t.TempDir())
	require.NoError(t, err)
	return retriever.NewRetriever(provider, store, concurrency)
}

func TestSearch_YearFilterAndTruncation(t *testing.T) {
	provider := &stubProvider{records: []model.PaperRecord{
		paperIn(2019, "a1"),
		paperIn(2021, "a2"),
		paperIn(2022, "a3"),
		paperIn(2023, "a4"),
		paperIn(2026, "a5"),
	}}
	r := newTestRetriever(t, provider, 1)

	records, err := r.Search(context.Background(), "all:", model.QueryFilters{
		MinYear:    2021,
		MaxYear:    2025,
		MaxResults: 2,
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "a2", records[0].ID)
	assert.Equal(t, "a3", records[1].ID)
}

func TestSearch_PropagatesProviderError(t *testing.T) {
	provider := &stubProvider{searchErr: errors.New("upstream down")}
	r := newTestRetriever(t, provider, 1)

	_, err := r.Search(context.Background(), "all:", model.QueryFilters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestFetch_SecondCallHitsCache(t *testing.T) {
	provider := &stubProvider{}
	r := newTestRetriever(t, provider, 1)
	record := paperIn(2025, "2507.17668v1")

	first, err := r.Fetch(context.Background(), record)
	require.NoError(t, err)
	second, err := r.Fetch(context.Background(), record)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.downloadCount(record.ID))

	content, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes for 2507.17668v1", string(content))
}

func TestFetch_ConcurrentCallsShareOneDownload(t *testing.T) {
	provider := &stubProvider{delay: 50 * time.Millisecond}
	r := newTestRetriever(t, provider, 4)
	record := paperIn(2025, "2507.17668v1")

	var wg sync.WaitGroup
	paths := make([]string, 8)
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], errs[i] = r.Fetch(context.Background(), record)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, paths[0], paths[i])
	}
	assert.Equal(t, 1, provider.downloadCount(record.ID))
}

func TestFetch_FailedDownloadLeavesNoFile(t *testing.T) {
	provider := &stubProvider{failIDs: map[string]bool{"bad": true}}
	store, err := retriever.NewFSStore(t.TempDir())
	require.NoError(t, err)
	r := retriever.NewRetriever(provider, store, 1)

	_, err = r.Fetch(context.Background(), paperIn(2025, "bad"))
	require.Error(t, err)
	assert.False(t, store.Exists("bad"))
}

func TestFetchAll_SetsLocalPaths(t *testing.T) {
	provider := &stubProvider{}
	r := newTestRetriever(t, provider, 3)
	records := []model.PaperRecord{paperIn(2024, "a1"), paperIn(2025, "a2")}

	fetched, err := r.FetchAll(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, fetched, 2)
	for _, rec := range fetched {
		assert.NotEmpty(t, rec.LocalPath)
		assert.FileExists(t, rec.LocalPath)
	}
}

func TestFetchAll_PartialFailure(t *testing.T) {
	provider := &stubProvider{failIDs: map[string]bool{"a2": true}}
	r := newTestRetriever(t, provider, 1)
	records := []model.PaperRecord{paperIn(2024, "a1"), paperIn(2025, "a2"), paperIn(2026, "a3")}

	fetched, err := r.FetchAll(context.Background(), records)
	require.Error(t, err)

	for _, rec := range fetched {
		assert.NotEqual(t, "a2", rec.ID)
		assert.NotEmpty(t, rec.LocalPath)
	}
}
