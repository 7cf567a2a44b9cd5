package storage

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"
	"go_purlfy/internal/infra/fetcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackingRules = `{"example.com": {"mode": "black", "params": ["utm_source"], "description": "utm", "author": "a"}}`

func newRuleSet(t *testing.T, name, content string) *model.RuleSet {
	t.Helper()
	set, err := model.NewRuleSet(name, []byte(content), model.RuleSetSourceAPI)
	require.NoError(t, err)
	return set
}

func newTestStorage(t *testing.T) RuleSetStorageIface {
	t.Helper()
	cfg := configs.Default()
	cfg.DatabaseOptionConfig.LogLevel = "silent"
	db, err := NewGormDB(cfg)
	require.NoError(t, err)
	return NewRuleSetStorage(db)
}

func TestDBRuleSetStorage(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	_, err := s.GetRuleSet(ctx, "tracking")
	assert.ErrorIs(t, err, ErrRuleSetNotFound)

	require.NoError(t, s.SaveRuleSet(ctx, newRuleSet(t, "tracking", trackingRules)))
	require.NoError(t, s.SaveRuleSet(ctx, newRuleSet(t, "outgoing", `{}`)))

	got, err := s.GetRuleSet(ctx, "tracking")
	require.NoError(t, err)
	assert.Equal(t, trackingRules, got.Content)
	assert.False(t, got.UpdatedAt.IsZero())

	// upsert
	updated := newRuleSet(t, "tracking", `{"": {"mode": "black", "params": ["fbclid"], "description": "fb", "author": "b"}}`)
	require.NoError(t, s.SaveRuleSet(ctx, updated))
	got, err = s.GetRuleSet(ctx, "tracking")
	require.NoError(t, err)
	assert.Equal(t, updated.Checksum, got.Checksum)

	sets, err := s.ListRuleSets(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "outgoing", sets[0].Name)
	assert.Equal(t, "tracking", sets[1].Name)

	require.NoError(t, s.DeleteRuleSet(ctx, "outgoing"))
	_, err = s.GetRuleSet(ctx, "outgoing")
	assert.ErrorIs(t, err, ErrRuleSetNotFound)
	assert.ErrorIs(t, s.DeleteRuleSet(ctx, "outgoing"), ErrRuleSetNotFound)
}

func TestMemoryRuleSetCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryRuleSetCache(time.Minute)

	_, err := c.GetRuleSetFromCache(ctx, "tracking")
	assert.ErrorIs(t, err, ErrCacheMiss)

	set := newRuleSet(t, "tracking", trackingRules)
	require.NoError(t, c.SetRuleSetToCache(ctx, set))
	set.Content = "mutated"

	got, err := c.GetRuleSetFromCache(ctx, "tracking")
	require.NoError(t, err)
	assert.Equal(t, trackingRules, got.Content)

	require.NoError(t, c.DeleteRuleSetFromCache(ctx, "tracking"))
	_, err = c.GetRuleSetFromCache(ctx, "tracking")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestNewRuleSetCacheFallsBackToMemory(t *testing.T) {
	c, err := NewRuleSetCache(configs.Default())
	require.NoError(t, err)
	assert.IsType(t, &memoryRuleSetCache{}, c)
}

func TestNewRuleSetCacheUnreachableRedis(t *testing.T) {
	cfg := configs.Default()
	cfg.RedisConfig.Host = "127.0.0.1"
	cfg.RedisConfig.Port = 1
	cfg.RedisConfig.DialTimeout = 200 * time.Millisecond

	_, err := NewRuleSetCache(cfg)
	assert.Error(t, err)
}

func TestFileRuleSetSource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.json"), []byte(`["tracking", "outgoing"]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracking.json"), []byte(trackingRules), 0o644))

	src := NewFileRuleSetSource(dir)
	names, err := src.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tracking", "outgoing"}, names)

	set, err := src.FetchRuleSet(ctx, "tracking")
	require.NoError(t, err)
	assert.Equal(t, model.RuleSetSourceFile, set.Source)
	assert.Equal(t, trackingRules, set.Content)

	_, err = src.FetchRuleSet(ctx, "outgoing")
	assert.ErrorIs(t, err, ErrRuleSetNotFound)

	_, err = src.FetchRuleSet(ctx, "../list")
	assert.Error(t, err)
}

type fakeGetter map[string]string

func (g fakeGetter) GetBytes(_ context.Context, url string) ([]byte, error) {
	body, ok := g[url]
	if !ok {
		return nil, &fetcher.StatusError{URL: url, StatusCode: http.StatusNotFound}
	}
	if body == "" {
		return nil, &fetcher.StatusError{URL: url, StatusCode: http.StatusBadGateway}
	}
	return []byte(body), nil
}

func TestRemoteRuleSetSource(t *testing.T) {
	ctx := context.Background()
	getter := fakeGetter{
		"https://rules.example/core/list.json":          `["tracking"]`,
		"https://rules.example/core/tracking.min.json": trackingRules,
		"https://rules.example/core/broken.min.json":   "",
	}

	cfg := configs.Default()
	cfg.Rules.RemoteBase = "https://rules.example/core"
	src := NewRuleSetSource(cfg, getter)

	names, err := src.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tracking"}, names)

	set, err := src.FetchRuleSet(ctx, "tracking")
	require.NoError(t, err)
	assert.Equal(t, model.RuleSetSourceRemote, set.Source)

	_, err = src.FetchRuleSet(ctx, "missing")
	assert.ErrorIs(t, err, ErrRuleSetNotFound)

	_, err = src.FetchRuleSet(ctx, "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRuleSetNotFound)
}
