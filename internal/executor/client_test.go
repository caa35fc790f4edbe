package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard_agent/pkg"
)

func TestExecuteDecodesResult(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "data": [{"order_id": "A-1"}], "count": 1, "sql": "SELECT 1;"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	result, err := c.Execute(context.Background(), map[string]any{"select": []string{"*"}, "limit": 5})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, "SELECT 1;", result.SQL)
	assert.Contains(t, gotBody, `"select"`)
}

func TestExecuteUnwrapsStringEncodedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Result object double-encoded as a JSON string.
		w.Write([]byte(`"{\"success\": true, \"data\": [], \"count\": 0, \"sql\": \"SELECT 1;\"}"`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	result, err := c.Execute(context.Background(), map[string]any{"select": []string{"*"}})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "SELECT 1;", result.SQL)
}

func TestExecuteNon2xxIsBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.Execute(context.Background(), map[string]any{"select": []string{"*"}})

	var perr *pkg.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkg.KindBadGateway, perr.Kind)
	assert.Equal(t, pkg.StageExecute, perr.Stage)
}

func TestExecuteConnectionRefusedIsBadGateway(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1/query")
	_, err := c.Execute(context.Background(), map[string]any{"select": []string{"*"}})

	var perr *pkg.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkg.KindBadGateway, perr.Kind)
}

func TestExecuteGarbageBodyIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`"not an object"`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, err := c.Execute(context.Background(), map[string]any{"select": []string{"*"}})

	var perr *pkg.PipelineError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, pkg.KindInternal, perr.Kind)
}
