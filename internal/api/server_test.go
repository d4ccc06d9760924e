package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/deepzero/internal/api"
	"github.com/born-ml/deepzero/internal/dataset"
	"github.com/born-ml/deepzero/internal/generate"
	"github.com/born-ml/deepzero/internal/models"
	"github.com/born-ml/deepzero/internal/tensor"
)

func newTestEcho(t *testing.T, opts api.Options) *echo.Echo {
	t.Helper()
	e := echo.New()
	api.NewServer(opts).Register(e)
	return e
}

func fullOptions() api.Options {
	vocab := dataset.VocabFromWords([]string{"you", "say", "goodbye", "<eos>", "hello"})
	m := models.NewRnnlm(tensor.NewRNG(1), vocab.Len(), 4, 4)
	return api.Options{
		Generator: models.NewRnnlmGen(m, generate.NewSampler(generate.DefaultSamplingConfig(), tensor.NewRNG(2))),
		WordVecs: tensor.FromRows([][]float64{
			{1, 0}, {0.9, 0.1}, {0, 1}, {-1, 0}, {0.1, 0.9},
		}),
		Vocab: vocab,
	}
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestEcho(t, fullOptions()), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var got api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, api.HealthResponse{Status: "ok", Model: "Rnnlm", Generate: true, Similar: true}, got)
}

func TestGenerate(t *testing.T) {
	e := newTestEcho(t, fullOptions())
	rec := doJSON(t, e, http.MethodPost, "/v1/generate", `{"prefix":["you","say"],"skip":["goodbye"],"length":12}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got api.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Words, 12)
	assert.Equal(t, []string{"you", "say"}, got.Words[:2])
	assert.NotContains(t, got.Words[2:], "goodbye")
	assert.NotContains(t, got.Text, "<eos>")
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), got.ID)
}

func TestGenerateKeepsCallerRequestID(t *testing.T) {
	e := newTestEcho(t, fullOptions())
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(`{"prefix":["you"],"length":3}`))
	req.Header.Set(echo.HeaderXRequestID, "abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get(echo.HeaderXRequestID))
}

func TestGenerateRejects(t *testing.T) {
	e := newTestEcho(t, fullOptions())
	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{"prefix":`, http.StatusBadRequest},
		{"unknown field", `{"prefix":["you"],"temperature":2}`, http.StatusBadRequest},
		{"empty prefix", `{"prefix":[]}`, http.StatusBadRequest},
		{"unknown word", `{"prefix":["banana"]}`, http.StatusBadRequest},
		{"too long", `{"prefix":["you"],"length":100000}`, http.StatusBadRequest},
		{"everything skipped", `{"prefix":["you"],"skip":["you","say","goodbye","<eos>","hello"],"length":3}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/generate", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSimilarAndAnalogy(t *testing.T) {
	e := newTestEcho(t, fullOptions())

	rec := doJSON(t, e, http.MethodPost, "/v1/similar", `{"query":"you","top":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got api.NeighborsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Neighbors, 2)
	assert.Equal(t, "say", got.Neighbors[0].Word)

	rec = doJSON(t, e, http.MethodPost, "/v1/similar", `{"query":"nobody"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/v1/analogy", `{"a":"you","b":"say","c":"goodbye"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Neighbors, 2)
}

func TestEndpointsWithoutModels(t *testing.T) {
	e := newTestEcho(t, api.Options{})
	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodPost, "/v1/generate", `{"prefix":["a"]}`).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, e, http.MethodPost, "/v1/similar", `{"query":"a"}`).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, e, http.MethodGet, "/healthz", "").Code)
}
