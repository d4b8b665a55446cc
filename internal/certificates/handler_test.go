package certificates

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := newFakeStore(Policy{PolicyCompletion, 1, 1}, map[uint64]int{1: 1})
	svc, _ := testService(st, &seqCodes{codes: []string{"ABCDEFGHJKMN"}}, &recordingSender{})

	r := gin.New()
	api := r.Group("/api/v1")
	RegisterRoutes(api, api.Group("/admin"), svc)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/v1/admin/courses/1/certificates", "")
	require.Equal(t, http.StatusOK, w.Code)
	var gen GenerateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gen))
	assert.Equal(t, 1, gen.Generated)

	w = do(http.MethodGet, "/api/v1/certificates/abcdefghjkmn/pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="certificate-ABCDEFGHJKMN.pdf"`, w.Header().Get("Content-Disposition"))

	w = do(http.MethodGet, "/api/v1/certificates/NOPE", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(http.MethodPost, "/api/v1/admin/certificates/send", `{"certificate_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(http.MethodPost, "/api/v1/admin/certificates/send", `{"certificate_ids":[1]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var sent SendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
	assert.Equal(t, 1, sent.Sent)

	w = do(http.MethodGet, "/api/v1/admin/courses/x/certificates", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
