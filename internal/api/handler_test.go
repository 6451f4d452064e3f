package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DlutRDSerivice/dlut-research-service/internal/bio"
	"github.com/DlutRDSerivice/dlut-research-service/internal/query"
	"github.com/DlutRDSerivice/dlut-research-service/internal/token"
	"github.com/DlutRDSerivice/dlut-research-service/internal/wos"
)

func newTestServer(t *testing.T, index *query.Index) *httptest.Server {
	t.Helper()
	h := New(token.Words{}, []bio.Entity{{Phrase: "red car", Label: "Object"}}, index)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testCorpus() *query.Index {
	return query.NewIndex([]*wos.Record{
		{Fields: map[string]string{"TI": "Deep learning for segmentation", "PY": "2020"}},
		{Fields: map[string]string{"TI": "Transfer learning survey", "PY": "2019"}},
	})
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestClassify(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/classify", `{"text": "a red car is fast"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got classifyResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []bio.Span{{Start: 2, End: 9, Label: "Object", Text: "red car"}}, got.Spans)
}

func TestClassifyNoMatches(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/classify", `{"text": "nothing to see"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"spans":[]`, "no matches must still be an empty array")
}

func TestClassifyEmptyText(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/classify", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"empty text"}`, string(body))
}

func TestClassifyMalformedBody(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/classify", `{"text": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid JSON body")
}

func TestClassifyMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/classify")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestTagWithRequestEntities(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/v1/tag",
		`{"text": "x y z", "entities": [{"phrase": "x y", "label": "A"}, {"phrase": "y z", "label": "B"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got tagResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []string{"x", "y", "z"}, got.Tokens)
	assert.Equal(t, []string{"B-A", "B-B", "I-B"}, got.Labels)
}

func TestTagDefaultEntities(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/v1/tag", `{"text": "a red car is fast"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got tagResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, []string{"O", "B-Object", "I-Object", "O", "O"}, got.Labels)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, testCorpus())

	resp, body := postJSON(t, srv.URL+"/v1/search", `{"query": "ti=survey"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got searchResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 1, got.Total)
	require.Len(t, got.Results, 1)
	assert.Equal(t, searchResult{Index: 1, Title: "Transfer learning survey"}, got.Results[0])
}

func TestSearchBadQuery(t *testing.T) {
	srv := newTestServer(t, testCorpus())

	resp, body := postJSON(t, srv.URL+"/v1/search", `{"query": "xx=foo"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "unknown field")
}

func TestSearchWithoutCorpus(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/v1/search", `{"query": "ti=x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "no corpus loaded")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	// Generate one observation so the counter family exists.
	_, _ = postJSON(t, srv.URL+"/classify", `{"text": "a red car"}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "research_http_requests_total")
}
