package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/tonica-music/catalog/internal/app"
	"github.com/tonica-music/catalog/internal/auth"
	"github.com/tonica-music/catalog/internal/importer"
	jobmetrics "github.com/tonica-music/catalog/internal/jobs"
	"github.com/tonica-music/catalog/internal/rbac"
	"github.com/tonica-music/catalog/jobs"
)

type recordingImporter struct {
	document string
	actor    string
}

func (r *recordingImporter) Import(_ context.Context, document, actorID string) (importer.Result, error) {
	r.document, r.actor = document, actorID
	return importer.Result{Message: "NFE processed successfully within a transaction.", ProcessedCount: 2}, nil
}

// TestAsyncImportRoundTrip follows an invoice from the HTTP endpoint through
// the queue into the worker handler.
func TestAsyncImportRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: srv.Addr()}

	client, err := jobs.NewClient(opt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	inspector := asynq.NewInspector(opt)
	t.Cleanup(func() { _ = inspector.Close() })

	tokens, err := auth.NewTokens("e2e-secret", time.Hour)
	require.NoError(t, err)
	token, err := tokens.Issue("user-77", "compras@tonica.com.br", rbac.RoleImporter)
	require.NoError(t, err)

	syncImporter := &recordingImporter{}
	router := app.NewRouter(app.RouterParams{
		Config:        &app.Config{ImportRateLimit: 10},
		Auth:          auth.Middleware(tokens, nil),
		RBAC:          &rbac.Middleware{Policy: rbac.DefaultPolicy()},
		ImportHandler: importer.NewHandler(nil, syncImporter, client),
		JobHandler:    jobs.NewHandler(inspector, nil),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/nfe/async",
		strings.NewReader(`{"nfeXmlContent":"<nfeProc>async</nfeProc>"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Empty(t, syncImporter.document)

	var accepted struct {
		TaskID string `json:"taskId"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.TaskID)
	require.Equal(t, "queued", accepted.Status)

	info, err := inspector.GetTaskInfo(jobs.QueueImport, accepted.TaskID)
	require.NoError(t, err)
	require.Equal(t, jobs.TaskImportNFE, info.Type)
	require.Equal(t, asynq.TaskStatePending, info.State)

	worker := &recordingImporter{}
	job := jobs.NewImportNFEJob(worker, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(info.Type, info.Payload)))
	require.Equal(t, "<nfeProc>async</nfeProc>", worker.document)
	require.Equal(t, "user-77", worker.actor)
}

func TestAsyncImportRejectsViewer(t *testing.T) {
	tokens, err := auth.NewTokens("e2e-secret", time.Hour)
	require.NoError(t, err)
	token, err := tokens.Issue("user-78", "", rbac.RoleViewer)
	require.NoError(t, err)

	router := app.NewRouter(app.RouterParams{
		Config:        &app.Config{ImportRateLimit: 10},
		Auth:          auth.Middleware(tokens, nil),
		RBAC:          &rbac.Middleware{Policy: rbac.DefaultPolicy()},
		ImportHandler: importer.NewHandler(nil, &recordingImporter{}, nil),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/nfe/async", strings.NewReader(`{"nfeXmlContent":"<nfe/>"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
