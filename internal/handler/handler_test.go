package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenslabs/paperlens/internal/analysis"
	"github.com/lenslabs/paperlens/internal/handler"
	"github.com/lenslabs/paperlens/internal/model"
	"github.com/lenslabs/paperlens/internal/qa"
	"github.com/lenslabs/paperlens/internal/retriever"
	"github.com/lenslabs/paperlens/internal/service"
	"github.com/lenslabs/paperlens/internal/worker"
	"github.com/lenslabs/paperlens/pkg/middleware"
)

type fakeProvider struct{}

func (fakeProvider) Search(ctx context.Context, q string, sort model.SortOrder, maxResults int) ([]model.PaperRecord, error) {
	return []model.PaperRecord{{
		ID:        "2507.17668v1",
		Title:     "Quantum Error Correction",
		Published: time.Date(2025, 7, 23, 0, 0, 0, 0, time.UTC),
		PDFURL:    "https://example.org/pdf/2507.17668v1",
	}}, nil
}

func (fakeProvider) Download(ctx context.Context, record model.PaperRecord, w io.Writer) error {
	_, err := w.Write([]byte("pdf " + record.ID))
	return err
}

type fakeCorpus struct{}

func (fakeCorpus) Add(ctx context.Context, id string, text string) error { return nil }

func (fakeCorpus) Ask(ctx context.Context, question string) (string, error) {
	return "canned answer", nil
}

type fakeEngine struct{}

func (fakeEngine) NewCorpus() qa.Corpus { return fakeCorpus{} }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	blobStore, err := retriever.NewFSStore(t.TempDir())
	require.NoError(t, err)

	engine := fakeEngine{}
	extract := func(path string) (string, error) { return "plain text", nil }
	ret := retriever.NewRetriever(fakeProvider{}, blobStore, 2)
	analyzer := analysis.NewExecutor(engine, extract)
	executor := service.NewPipelineExecutor(ret, analyzer, engine, extract, "", 10)

	pool := worker.NewPool(2, 10)
	orchestrator := service.NewOrchestrator(model.NewMemoryJobStore(), pool, executor)
	orchestrator.Start()
	t.Cleanup(orchestrator.Stop)

	router := handler.NewRouter(
		handler.NewJobHandler(orchestrator),
		handler.NewHealthHandler(nil, "test"),
		middleware.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET, POST, OPTIONS", AllowedHeaders: "*"},
	)

	srv := httptest.NewServer(router.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubmitPipeline_Accepted(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/jobs/pipeline", model.PipelineRequest{
		Prompt: "quantum error correction",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	submitted := decode[handler.SubmitResponse](t, resp)
	assert.NotEmpty(t, submitted.JobID)
	assert.Equal(t, model.StatusQueued, submitted.Status)
}

func TestSubmitPipeline_RejectsEmptyPrompt(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/jobs/pipeline", model.PipelineRequest{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitPipeline_RejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/jobs/pipeline", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitPipeline_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/jobs/pipeline")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPoll_RoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/jobs/pipeline", model.PipelineRequest{
		Prompt: "quantum error correction",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	submitted := decode[handler.SubmitResponse](t, resp)

	var polled handler.JobResponse
	require.Eventually(t, func() bool {
		pollResp, err := http.Get(srv.URL + "/api/v1/jobs/" + submitted.JobID)
		if err != nil {
			return false
		}
		if pollResp.StatusCode != http.StatusOK {
			pollResp.Body.Close()
			return false
		}
		polled = decode[handler.JobResponse](t, pollResp)
		return polled.Status == model.StatusDone || polled.Status == model.StatusError
	}, 10*time.Second, 20*time.Millisecond)

	require.Equal(t, model.StatusDone, polled.Status)
	assert.Empty(t, polled.Error)

	var result model.AnalysisResult
	require.NoError(t, json.Unmarshal(polled.Result, &result))
	assert.Equal(t, []string{"2507.17668v1"}, result.PaperIDs)
	assert.Equal(t, "canned answer", result.Answers[analysis.DefaultQuestion])
}

func TestPoll_UnknownJobIs404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/jobs/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitFutureWork_Accepted(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/jobs/future", model.FutureWorkRequest{
		PriorResult: json.RawMessage(`{"answers":{}}`),
		TargetPath:  "/papers/2507.17668v1.pdf",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	submitted := decode[handler.SubmitResponse](t, resp)
	assert.NotEmpty(t, submitted.JobID)
}

func TestHealth_InMemoryStorage(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[handler.HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "in-memory", health.Storage)
	assert.Equal(t, "test", health.Version)
}

func TestReady_InMemoryStorage(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORS_Preflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/jobs/pipeline", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
