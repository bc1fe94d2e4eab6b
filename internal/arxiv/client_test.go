package arxiv

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslabs/paperlens/internal/model"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2507.17668v1</id>
    <title>Quantum   Error
      Correction</title>
    <published>2025-07-23T17:59:59Z</published>
    <summary> A study of error correction codes. </summary>
    <author><name>Jane Doe</name></author>
    <author><name>John Smith</name></author>
    <link href="http://arxiv.org/abs/2507.17668v1" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2507.17668v1" rel="related" type="application/pdf" title="pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v2</id>
    <title>Another Paper</title>
    <published>2024-01-01T00:00:00Z</published>
    <summary>Short.</summary>
    <author><name>Ada Lovelace</name></author>
    <link href="http://arxiv.org/abs/2401.00001v2" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func fastRetryClient(baseURL string) *Client {
	c := NewClient(baseURL, 5*time.Second)
	c.retry = NewRetryStrategy(RetryConfig{InitialDelayMs: 1, MaxDelayMs: 2})
	return c
}

func TestSearch_ParsesFeed(t *testing.T) {
	var gotQuery, gotSortBy, gotMax string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		gotSortBy = r.URL.Query().Get("sortBy")
		gotMax = r.URL.Query().Get("max_results")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	client := fastRetryClient(srv.URL)
	records, err := client.Search(context.Background(), `(ti:"quantum")`, model.SortRelevance, 5)
	require.NoError(t, err)

	assert.Equal(t, `(ti:"quantum")`, gotQuery)
	assert.Equal(t, "relevance", gotSortBy)
	assert.Equal(t, "5", gotMax)

	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "2507.17668v1", first.ID)
	assert.Equal(t, "Quantum Error Correction", first.Title)
	assert.Equal(t, []string{"Jane Doe", "John Smith"}, first.Authors)
	assert.Equal(t, 2025, first.Published.Year())
	assert.Equal(t, "http://arxiv.org/abs/2507.17668v1", first.SourceURL)
	assert.Equal(t, "http://arxiv.org/pdf/2507.17668v1", first.PDFURL)
	assert.Equal(t, "A study of error correction codes.", first.Summary)

	// No pdf link in the feed entry, so the URL is derived from the id
	assert.Equal(t, "https://arxiv.org/pdf/2401.00001v2.pdf", records[1].PDFURL)
}

func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	_, err := fastRetryClient(srv.URL).Search(context.Background(), "", model.SortSubmittedDate, 3)
	require.NoError(t, err)
	assert.Equal(t, "all:", gotQuery)
}

func TestSearch_UnknownSortFallsBackToSubmitted(t *testing.T) {
	var gotSortBy string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSortBy = r.URL.Query().Get("sortBy")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	_, err := fastRetryClient(srv.URL).Search(context.Background(), "all:", model.SortOrder("bogus"), 3)
	require.NoError(t, err)
	assert.Equal(t, "submittedDate", gotSortBy)
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	records, err := fastRetryClient(srv.URL).Search(context.Background(), "all:", model.SortSubmittedDate, 3)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := fastRetryClient(srv.URL).Search(context.Background(), "all:", model.SortSubmittedDate, 3)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownload_StreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.5 fake body"))
	}))
	defer srv.Close()

	client := fastRetryClient(srv.URL)
	record := model.PaperRecord{ID: "2507.17668v1", PDFURL: srv.URL + "/pdf/2507.17668v1"}

	var buf bytes.Buffer
	require.NoError(t, client.Download(context.Background(), record, &buf))
	assert.Equal(t, "%PDF-1.5 fake body", buf.String())
}

func TestDownload_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := fastRetryClient(srv.URL)
	record := model.PaperRecord{ID: "missing", PDFURL: srv.URL + "/pdf/missing"}

	var buf bytes.Buffer
	err := client.Download(context.Background(), record, &buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}
