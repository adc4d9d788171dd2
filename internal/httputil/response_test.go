package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, "account created", map[string]string{"id": "abc"}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success)
	assert.Equal(t, "account created", env.Message)
	assert.Empty(t, env.Code)
	assert.NotNil(t, env.Data)
}

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "email already registered", CodeEmailAlreadyExists, http.StatusConflict)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var env Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.False(t, env.Success)
	assert.Equal(t, CodeEmailAlreadyExists, env.Code)
	assert.Nil(t, env.Data)
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, "nope", http.StatusBadRequest)

	body := rec.Body.String()
	assert.NotContains(t, body, `"data"`)
	assert.NotContains(t, body, `"code"`)
}
