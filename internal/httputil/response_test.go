package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusConflict, "node n1 already exists", map[string]interface{}{
		"resourceId": "n1",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["title"])
	assert.Equal(t, "node n1 already exists", body["detail"])
	assert.Equal(t, "n1", body["resourceId"])
	assert.EqualValues(t, 409, body["status"])
}

func TestErrorTypeFromStatus(t *testing.T) {
	for _, status := range []int{
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusUnprocessableEntity,
		http.StatusServiceUnavailable,
		http.StatusInternalServerError,
	} {
		assert.True(t, strings.HasPrefix(errorTypeFromStatus(status), "https://"), "status %d", status)
	}
}

func TestParseJSON(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	require.NoError(t, ParseJSON(rec, req, &dest))
	assert.Equal(t, "a", dest.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, ParseJSON(rec, req, &dest))

	big := `{"name":"` + strings.Repeat("x", MaxJSONBodyBytes) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	err := ParseJSON(rec, req, &dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestQueryBool(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"?flush=false", false},
		{"?flush=0", false},
		{"?flush=true", true},
		{"?flush=maybe", true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodDelete, "/x"+tt.query, nil)
		assert.Equal(t, tt.want, QueryBool(req, "flush", true), tt.query)
	}
}
