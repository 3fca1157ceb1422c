package correct

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaflow/schemaflow/internal/apperror"
	"github.com/schemaflow/schemaflow/testhelper"
)

func TestCorrectSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req correctionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "TABLE users\n  id integer\n", req.Schema)
		assert.Equal(t, "mysql", req.TargetEngine)

		json.NewEncoder(w).Encode(Result{
			Success:         true,
			CorrectedSchema: "CREATE TABLE users (id INT);",
		})
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: time.Second}, testhelper.NewLogger())

	result, err := client.Correct(context.Background(), "TABLE users\n  id integer\n", "mysql")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "CREATE TABLE users (id INT);", result.CorrectedSchema)
}

func TestCorrectServiceFailureResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{Success: false, Error: "model overloaded"})
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: time.Second}, testhelper.NewLogger())

	result, err := client.Correct(context.Background(), "schema", "postgres")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "model overloaded", result.Error)
}

func TestCorrectNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: time.Second}, testhelper.NewLogger())

	_, err := client.Correct(context.Background(), "schema", "postgres")

	var correctionErr *apperror.CorrectionError
	assert.ErrorAs(t, err, &correctionErr)
}

func TestCorrectTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 20 * time.Millisecond}, testhelper.NewLogger())

	_, err := client.Correct(context.Background(), "schema", "postgres")

	var correctionErr *apperror.CorrectionError
	assert.ErrorAs(t, err, &correctionErr)
}
