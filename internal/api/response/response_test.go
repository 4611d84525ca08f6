package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_WrapsInDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, map[string]int{"count": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"count":3}}`, rec.Body.String())
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"abc"}}`, rec.Body.String())
}

func TestRaw_WritesBytesVerbatim(t *testing.T) {
	rec := httptest.NewRecorder()
	Raw(rec, []byte(`{"data":{"cached":true}}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"data":{"cached":true}}`, rec.Body.String())
}

func TestError_Shape(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "INVALID_REQUEST", "text is required", map[string]string{"field": "text"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Error struct {
			Code    string            `json:"code"`
			Message string            `json:"message"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "INVALID_REQUEST", got.Error.Code)
	assert.Equal(t, "text is required", got.Error.Message)
	assert.Equal(t, "text", got.Error.Details["field"])
}

func TestError_OmitsEmptyDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "NOT_FOUND", "no such report", nil)

	assert.NotContains(t, rec.Body.String(), "details")
}
