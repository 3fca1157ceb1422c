package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaflow/schemaflow/internal/broadcast"
	"github.com/schemaflow/schemaflow/internal/httpapi"
	"github.com/schemaflow/schemaflow/internal/status"
	"github.com/schemaflow/schemaflow/testhelper"
)

type stubSubscriber struct{}

func (stubSubscriber) Subscribe(ctx context.Context, userID string) (<-chan broadcast.Event, func(), error) {
	ch := make(chan broadcast.Event)
	close(ch)
	return ch, func() {}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t, nil)
	responses := httpapi.NewResponseHandler(testhelper.NewLogger())
	handler := NewHandler(f.service, stubSubscriber{}, responses, testhelper.NewLogger())

	router := gin.New()
	handler.RegisterRoutes(router, httpapi.IdentityMiddleware(responses))
	return router, f
}

func doRequest(router *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) httpapi.Response {
	t.Helper()
	var resp httpapi.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleMigrateCreated(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/migration/migrate", "u1", gin.H{
		"sourceDB": "pg://src:5432/app",
		"targetDB": "mysql://dst:3306/app",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	id, ok := data["migrationId"].(string)
	require.True(t, ok)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestHandleMigrateRequiresIdentity(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/migration/migrate", "", gin.H{
		"sourceDB": "pg://src/app",
		"targetDB": "mysql://dst/app",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
}

func TestHandleMigrateValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/migration/migrate", "u1", gin.H{
		"sourceDB": "pg://src/app",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "targetDB", resp.Error.Field)
}

func TestHandleStatus(t *testing.T) {
	router, f := newTestRouter(t)

	id, err := f.service.StartMigration(context.Background(), "u1", "pg://src/app", "mysql://dst/app")
	require.NoError(t, err)

	w := doRequest(router, http.MethodGet, "/migration/status/"+id, "u1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, status.StatusMigrating, data["status"])
}

func TestHandleStatusNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/migration/status/"+uuid.NewString(), "u1", nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestHandleRollbackWithoutSnapshot(t *testing.T) {
	router, f := newTestRouter(t)

	id := uuid.New()
	require.NoError(t, f.store.Create(context.Background(), &Migration{
		ID: id, UserID: "u1", Status: status.StatusCompleted,
	}))

	w := doRequest(router, http.MethodPost, "/migration/rollback/"+id.String(), "u1", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "ROLLBACK_FAILED", resp.Error.Code)
	assert.Equal(t, "No previous schema found for rollback.", resp.Error.Message)
}

func TestHandleRollbackSuccess(t *testing.T) {
	router, f := newTestRouter(t)

	id, err := f.service.StartMigration(context.Background(), "u1", "pg://src/app", "mysql://dst/app")
	require.NoError(t, err)
	finishMigration(t, f, id)

	w := doRequest(router, http.MethodPost, "/migration/rollback/"+id, "u1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Previous schema restored", resp.Message)
}

func TestHandleRollbackInFlightRejected(t *testing.T) {
	router, f := newTestRouter(t)

	id, err := f.service.StartMigration(context.Background(), "u1", "pg://src/app", "mysql://dst/app")
	require.NoError(t, err)

	w := doRequest(router, http.MethodPost, "/migration/rollback/"+id, "u1", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "ROLLBACK_FAILED", resp.Error.Code)
}

func TestHandleCancel(t *testing.T) {
	router, f := newTestRouter(t)

	id, err := f.service.StartMigration(context.Background(), "u1", "pg://src/app", "mysql://dst/app")
	require.NoError(t, err)

	w := doRequest(router, http.MethodPost, "/migration/cancel/"+id, "u1", nil)

	require.Equal(t, http.StatusOK, w.Code)

	cancelled, err := f.status.IsCancelled(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, cancelled)
}
