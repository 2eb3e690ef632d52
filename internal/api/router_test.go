package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/saldo-certo/internal/domain"
	"github.com/dvloznov/saldo-certo/internal/export"
	"github.com/dvloznov/saldo-certo/internal/interpreter"
	"github.com/dvloznov/saldo-certo/internal/jobs"
	"github.com/dvloznov/saldo-certo/internal/jobs/inmemory"
	"github.com/dvloznov/saldo-certo/internal/metrics"
	"github.com/dvloznov/saldo-certo/internal/store/sqlite"
)

type mockPublisher struct {
	PublishExportFunc func(ctx context.Context, job *jobs.ExportJob) error
}

func (m *mockPublisher) PublishExport(ctx context.Context, job *jobs.ExportJob) error {
	return m.PublishExportFunc(ctx, job)
}

func (m *mockPublisher) Close() error { return nil }

type mockStorage struct {
	FetchFunc func(ctx context.Context, uri string) ([]byte, error)
}

func (m *mockStorage) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	return nil
}

func (m *mockStorage) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return m.FetchFunc(ctx, uri)
}

type testServer struct {
	handler http.Handler
	store   *sqlite.Store
	jobs    *inmemory.Store
}

func newTestServer(t *testing.T, token string, pub jobs.Publisher) *testServer {
	t.Helper()
	return newArchiveServer(t, token, pub, nil)
}

func newArchiveServer(t *testing.T, token string, pub jobs.Publisher, archive export.Storage) *testServer {
	t.Helper()
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "saldo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	jobStore := inmemory.NewStore()
	h := NewRouter(Deps{
		Interpreter: interpreter.New(st),
		Ledger:      st,
		Jobs:        jobStore,
		Publisher:   pub,
		Archive:     archive,
		Metrics:     metrics.New(),
		APIToken:    token,
		Log:         zerolog.Nop(),
	})
	return &testServer{handler: h, store: st, jobs: jobStore}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (s *testServer) add(t *testing.T, user, amount, category string, at time.Time) {
	t.Helper()
	tx := domain.NewTransaction(user, decimal.RequireFromString(amount), category, "nota", at)
	require.NoError(t, s.store.AddTransaction(context.Background(), tx))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "", nil)
	rec, body := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, "", nil)
	rec, _ := s.do(t, http.MethodGet, "/health", "", "X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, "secret", nil)

	rec, _ := s.do(t, http.MethodGet, "/api/users/u1/balance", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/users/u1/balance", "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/users/u1/balance", "", "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInterpret(t *testing.T) {
	s := newTestServer(t, "", nil)

	rec, body := s.do(t, http.MethodPost, "/api/interpret", `{"text":"Gastei 50 no mercado e 30 em algo"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	txs := body["transactions"].([]interface{})
	first := txs[0].(map[string]interface{})
	assert.Equal(t, "-50", first["amount"])
	assert.Equal(t, "expense", first["direction"])
	assert.Equal(t, "alimentação", first["category"])
	assert.Equal(t, "keyword", first["provenance"])
	assert.Equal(t, true, first["resolved"])

	// dry run
	balance, err := s.store.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestInterpret_BadRequest(t *testing.T) {
	s := newTestServer(t, "", nil)

	rec, _ := s.do(t, http.MethodPost, "/api/interpret", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/interpret", `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/interpret", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLedgerEndpoints(t *testing.T) {
	s := newTestServer(t, "", nil)
	now := time.Now().UTC()
	s.add(t, "u1", "1000", "salário", now)
	s.add(t, "u1", "-250.5", "alimentação", now)
	s.add(t, "u1", "-100", "lazer", now.AddDate(0, -2, 0))
	s.add(t, "u2", "-7", "outros", now)

	rec, body := s.do(t, http.MethodGet, "/api/users/u1/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "649.5", body["balance"])

	rec, body = s.do(t, http.MethodGet, "/api/users/u1/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["count"])

	since := now.AddDate(0, 0, -1).Format("2006-01-02")
	rec, body = s.do(t, http.MethodGet, "/api/users/u1/transactions?since="+since, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	rec, _ = s.do(t, http.MethodGet, "/api/users/u1/transactions?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/users/u1/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, now.Format("2006-01"), body["month"])
	assert.Equal(t, "649.5", body["balance"])
	assert.Equal(t, "1000", body["income"])
	assert.Equal(t, "250.5", body["expense"])
	assert.EqualValues(t, 2, body["count"])

	rec, body = s.do(t, http.MethodGet, "/api/users/nobody/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["count"])
}

func TestCreateExport(t *testing.T) {
	var published *jobs.ExportJob
	pub := &mockPublisher{
		PublishExportFunc: func(ctx context.Context, job *jobs.ExportJob) error {
			job.JobID = "job-7"
			job.Status = jobs.JobStatusPending
			published = job
			return nil
		},
	}
	s := newTestServer(t, "", pub)

	rec, body := s.do(t, http.MethodPost, "/api/users/u1/exports", `{"monthly":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "job-7", body["job_id"])
	require.NotNil(t, published)
	assert.Equal(t, "u1", published.UserID)
	assert.True(t, published.Monthly)
	assert.False(t, published.Since.IsZero())

	rec, _ = s.do(t, http.MethodPost, "/api/users/u1/exports", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.False(t, published.Monthly)
	assert.True(t, published.Since.IsZero())
}

func TestCreateExport_Disabled(t *testing.T) {
	s := newTestServer(t, "", nil)
	rec, _ := s.do(t, http.MethodPost, "/api/users/u1/exports", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJobs(t *testing.T) {
	s := newTestServer(t, "", nil)
	ctx := context.Background()
	require.NoError(t, s.jobs.SaveJob(ctx, &jobs.ExportJob{JobID: "a", UserID: "u1", Status: jobs.JobStatusCompleted, CreatedAt: time.Now()}))
	require.NoError(t, s.jobs.SaveJob(ctx, &jobs.ExportJob{JobID: "b", UserID: "u2", Status: jobs.JobStatusFailed, CreatedAt: time.Now()}))

	rec, body := s.do(t, http.MethodGet, "/api/jobs/a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", body["user_id"])

	rec, _ = s.do(t, http.MethodGet, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/api/jobs?user_id=u2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])

	rec, body = s.do(t, http.MethodGet, "/api/jobs?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
}

func TestDownloadExport(t *testing.T) {
	const uri = "gs://saldo-exports/exports/u1/2024/05/02/a-transacoes_totais.csv"
	var fetched []string
	archive := &mockStorage{
		FetchFunc: func(ctx context.Context, got string) ([]byte, error) {
			fetched = append(fetched, got)
			if got != uri {
				return nil, errors.New("object not found")
			}
			return []byte("data,valor,categoria,nota\n"), nil
		},
	}
	s := newArchiveServer(t, "", nil, archive)
	ctx := context.Background()
	require.NoError(t, s.jobs.SaveJob(ctx, &jobs.ExportJob{JobID: "a", UserID: "u1", Status: jobs.JobStatusCompleted, ObjectURI: uri}))
	require.NoError(t, s.jobs.SaveJob(ctx, &jobs.ExportJob{JobID: "b", UserID: "u1", Status: jobs.JobStatusRunning}))
	require.NoError(t, s.jobs.SaveJob(ctx, &jobs.ExportJob{JobID: "c", UserID: "u1", Status: jobs.JobStatusCompleted, ObjectURI: "gs://saldo-exports/gone.csv"}))

	rec, _ := s.do(t, http.MethodGet, "/api/jobs/a/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=a-transacoes_totais.csv`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "data,valor,categoria,nota\n", rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/api/jobs/b/download", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/jobs/c/download", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/jobs/missing/download", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []string{uri, "gs://saldo-exports/gone.csv"}, fetched)
}

func TestDownloadExport_Disabled(t *testing.T) {
	s := newTestServer(t, "", nil)
	rec, _ := s.do(t, http.MethodGet, "/api/jobs/a/download", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "secret", nil)
	s.do(t, http.MethodGet, "/health", "")

	rec, _ := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "saldo_http_requests_total")
}
