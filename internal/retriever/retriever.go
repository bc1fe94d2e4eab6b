package retriever

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lenslabs/paperlens/internal/model"
)

// SearchProvider is the external search capability (see internal/arxiv)
type SearchProvider interface {
	Search(ctx context.Context, query string, sort model.SortOrder, maxResults int) ([]model.PaperRecord, error)
	Download(ctx context.Context, record model.PaperRecord, w io.Writer) error
}

// Retriever finds papers via a SearchProvider and caches downloads in a
// BlobStore. Fetches are idempotent: at most one document is ever stored per
// external identifier, and concurrent fetches of the same identifier are
// collapsed into a single download.
type Retriever struct {
	provider    SearchProvider
	store       BlobStore
	group       singleflight.Group
	concurrency int
}

// NewRetriever creates a new retriever
func NewRetriever(provider SearchProvider, store BlobStore, concurrency int) *Retriever {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Retriever{
		provider:    provider,
		store:       store,
		concurrency: concurrency,
	}
}

// Search runs the query against the provider, applies the min/max year
// post-filter (the external API has no native support for it) and truncates
// to MaxResults.
func (r *Retriever) Search(ctx context.Context, query string, filters model.QueryFilters) ([]model.PaperRecord, error) {
	maxResults := filters.MaxResults
	if maxResults <= 0 {
		maxResults = model.DefaultMaxResults
	}

	records, err := r.provider.Search(ctx, query, filters.Sort, maxResults)
	if err != nil {
		return nil, err
	}

	filtered := make([]model.PaperRecord, 0, len(records))
	for _, rec := range records {
		year := rec.Published.Year()
		if filters.MinYear != 0 && year < filters.MinYear {
			continue
		}
		if filters.MaxYear != 0 && year > filters.MaxYear {
			continue
		}
		filtered = append(filtered, rec)
		if len(filtered) == maxResults {
			break
		}
	}

	slog.Info("Paper search completed",
		"query", query,
		"candidates", len(records),
		"matched", len(filtered),
	)

	return filtered, nil
}

// Fetch downloads the paper unless it is already cached, returning the local
// path either way. Concurrent fetches of one identifier share one download.
func (r *Retriever) Fetch(ctx context.Context, record model.PaperRecord) (string, error) {
	path, err, _ := r.group.Do(record.ID, func() (interface{}, error) {
		if r.store.Exists(record.ID) {
			slog.Debug("Paper already cached", "paper_id", record.ID)
			return r.store.Path(record.ID), nil
		}

		path, err := r.store.Write(record.ID, func(w io.Writer) error {
			return r.provider.Download(ctx, record, w)
		})
		if err != nil {
			return "", err
		}

		slog.Info("Paper downloaded", "paper_id", record.ID, "path", path)
		return path, nil
	})
	if err != nil {
		return "", err
	}
	return path.(string), nil
}

// FetchAll fetches every record with bounded parallelism and sets LocalPath
// on success. Papers fetched before a failure are returned alongside the
// error; the caller decides whether a partial set is usable.
func (r *Retriever) FetchAll(ctx context.Context, records []model.PaperRecord) ([]model.PaperRecord, error) {
	fetched := make([]model.PaperRecord, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, rec := range records {
		g.Go(func() error {
			path, err := r.Fetch(gctx, rec)
			if err != nil {
				return err
			}
			rec.LocalPath = path
			fetched[i] = rec
			return nil
		})
	}

	err := g.Wait()

	result := make([]model.PaperRecord, 0, len(records))
	for _, rec := range fetched {
		if rec.LocalPath != "" {
			result = append(result, rec)
		}
	}
	return result, err
}
