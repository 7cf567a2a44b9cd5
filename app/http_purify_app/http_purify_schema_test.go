package http_purify_app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go_purlfy/internal/domain/services"
	"go_purlfy/internal/infra/storage"

	"github.com/emicklei/go-restful"
	rf "github.com/go-chassis/go-chassis/v2/server/restful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuleManageService struct {
	saved   map[string][]byte
	deleted []string
	names   []string
}

func (f *fakeRuleManageService) LoadRuleSets(context.Context, []string) ([]string, error) {
	return f.names, nil
}

func (f *fakeRuleManageService) ReloadRuleSets(_ context.Context, names []string, _ bool) ([]string, error) {
	if len(names) == 0 {
		return f.names, nil
	}
	return names, nil
}

func (f *fakeRuleManageService) SaveRuleSet(_ context.Context, name string, content []byte) error {
	f.saved[name] = content
	return nil
}

func (f *fakeRuleManageService) DeleteRuleSet(_ context.Context, name string) error {
	if name != "tracking" {
		return storage.ErrRuleSetNotFound
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeRuleManageService) ListRuleSetNames(context.Context) ([]string, error) {
	return f.names, nil
}

func newTestController(t *testing.T) (*PurifyController, *services.Purifier, *fakeRuleManageService) {
	t.Helper()
	counterAdd = func(string, float64, map[string]string) error { return nil }
	p := services.NewPurifier(services.Options{})
	require.NoError(t, p.ImportRulesJSON([]byte(
		`{"example.com": {"mode": "black", "params": ["utm_source"], "description": "utm", "author": "a"}}`)))
	rm := &fakeRuleManageService{saved: make(map[string][]byte), names: []string{"tracking"}}
	return NewPurifyController(p, rm), p, rm
}

func serve(handler func(*rf.Context), method, target, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		r.Header.Set("Content-Type", contentJSON)
	}
	w := httptest.NewRecorder()
	handler(&rf.Context{Ctx: r.Context(), Req: restful.NewRequest(r), Resp: restful.NewResponse(w)})
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestPurifyHandler(t *testing.T) {
	c, _, _ := newTestController(t)
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantURL    string
	}{
		{
			name:       "query parameter",
			method:     http.MethodGet,
			target:     "/purify?url=" + "https%3A%2F%2Fexample.com%2F%3Futm_source%3D1%26id%3D2",
			wantStatus: http.StatusOK,
			wantURL:    "https://example.com/?id=2",
		},
		{
			name:       "json body",
			method:     http.MethodPost,
			target:     "/purify",
			body:       `{"url": "https://example.com/?utm_source=1"}`,
			wantStatus: http.StatusOK,
			wantURL:    "https://example.com/",
		},
		{
			name:       "missing url",
			method:     http.MethodGet,
			target:     "/purify",
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(c.Purify, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				var resp ErrorResponse
				decodeBody(t, w, &resp)
				assert.NotEmpty(t, resp.Error)
				return
			}
			var resp services.PurifyResult
			decodeBody(t, w, &resp)
			assert.Equal(t, tt.wantURL, resp.URL)
			assert.Equal(t, "utm by a", resp.Rule)
		})
	}
}

func TestStatisticsHandlers(t *testing.T) {
	c, p, _ := newTestController(t)
	_, err := p.Purify(context.Background(), "https://example.com/?utm_source=1")
	require.NoError(t, err)

	w := serve(c.GetStatistics, http.MethodGet, "/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatisticsResponse
	decodeBody(t, w, &stats)
	assert.Equal(t, int64(1), stats.URL)
	assert.Equal(t, int64(1), stats.Param)
	assert.Equal(t, 1, stats.Rules)

	w = serve(c.ClearStatistics, http.MethodDelete, "/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, p.GetStatistics().IsZero())
}

func TestRuleSetHandlers(t *testing.T) {
	c, _, rm := newTestController(t)

	w := serve(c.SaveRuleSet, http.MethodPut, "/rulesets",
		`{"name": "custom", "rules": {"a.com": {"mode": "black", "params": ["x"]}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, rm.saved, "custom")

	w = serve(c.SaveRuleSet, http.MethodPut, "/rulesets", `{"name": "list", "rules": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(c.DeleteRuleSet, http.MethodDelete, "/rulesets?name=tracking", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(c.DeleteRuleSet, http.MethodDelete, "/rulesets?name=other", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(c.ListRuleSets, http.MethodGet, "/rulesets", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list RuleSetsResponse
	decodeBody(t, w, &list)
	assert.Equal(t, []string{"tracking"}, list.Names)

	w = serve(c.ReloadRuleSets, http.MethodPost, "/rulesets/reload", `{"names": ["a", "b"], "refresh": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &list)
	assert.Equal(t, []string{"a", "b"}, list.Names)
}

func TestURLPatterns(t *testing.T) {
	c, _, _ := newTestController(t)
	routes := c.URLPatterns()
	paths := make(map[string]bool, len(routes))
	for _, r := range routes {
		assert.NotNil(t, r.ResourceFunc)
		paths[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{"GET /purify", "POST /purify", "GET /statistics", "DELETE /statistics", "PUT /rulesets"} {
		assert.True(t, paths[want], want)
	}
}
