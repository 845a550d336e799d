package response

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	ErrorWithDetails(rec, http.StatusBadGateway, "Failed to search document embeddings", "dial tcp: refused")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to search document embeddings", body.Error)
	assert.Equal(t, "dial tcp: refused", body.Details)
}

func TestErrorOmitsEmptyDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "document not found")

	assert.JSONEq(t, `{"error":"document not found"}`, rec.Body.String())
}

func TestNDJSONWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	nw := NewNDJSONWriter(rec)

	require.NoError(t, nw.Write(map[string]any{"type": "progress", "page": 1}))
	require.NoError(t, nw.Write(map[string]any{"type": "complete"}))

	assert.Equal(t, NDJSONContentType, rec.Header().Get("Content-Type"))
	assert.True(t, rec.Flushed)

	var lines []string
	sc := bufio.NewScanner(rec.Body)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"progress","page":1}`, lines[0])
	assert.JSONEq(t, `{"type":"complete"}`, lines[1])
}
