package model

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyLambda(t *testing.T) {
	applier := NewApplier(Capabilities{LambdaEnabled: true}, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		source   string
		url      string
		expected string
		ok       bool
	}{
		{
			name:     "chained setters",
			source:   `url.DeleteParam("si").SetHost("b.com")`,
			url:      "https://a.com/?si=1&x=2",
			expected: "https://b.com/?x=2",
			ok:       true,
		},
		{
			name:     "string result",
			source:   `"https://c.com" + url.Path()`,
			url:      "https://a.com/p",
			expected: "https://c.com/p",
			ok:       true,
		},
		{
			name:     "decode helper",
			source:   `decode(url.Param("to"))`,
			url:      "https://a.com/?to=https%253A%252F%252Fz.com",
			expected: "https://z.com/",
			ok:       true,
		},
		{
			name:     "conditional",
			source:   `url.HasParam("ref") ? url.SetQuery("") : url`,
			url:      "https://a.com/x?ref=abc",
			expected: "https://a.com/x",
			ok:       true,
		},
		{
			name:     "wrong result type",
			source:   `1 + 1`,
			url:      "https://a.com/",
			expected: "https://a.com/",
		},
		{
			name:     "syntax error",
			source:   `url.(`,
			url:      "https://a.com/",
			expected: "https://a.com/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs []string
			rule := NewRule(tt.name, "a", &LambdaSpec{Source: tt.source})
			res, err := applier.Apply(ctx, mustURL(t, tt.url), rule, func(m string) { logs = append(logs, m) })
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.URL.String())
			assert.Equal(t, tt.ok, res.Continue)
			if !tt.ok {
				assert.NotEmpty(t, logs)
			}
		})
	}
}

func TestLambdaCompiledOnce(t *testing.T) {
	spec := &LambdaSpec{Source: `url.SetPath("/done")`}
	rule := NewRule("once", "a", spec)
	applier := NewApplier(Capabilities{LambdaEnabled: true}, nil)

	assert.False(t, spec.Compiled())
	for i := 0; i < 3; i++ {
		res, err := applier.Apply(context.Background(), mustURL(t, "https://a.com/start"), rule, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://a.com/done", res.URL.String())
		assert.True(t, spec.Compiled())
	}
}

func TestLambdaFunc(t *testing.T) {
	calls := 0
	spec := &LambdaSpec{Func: func(ctx context.Context, u *url.URL) (*url.URL, error) {
		calls++
		u.Fragment = ""
		return u, nil
	}}
	applier := NewApplier(Capabilities{LambdaEnabled: true}, nil)
	in := mustURL(t, "https://a.com/p#frag")

	res, err := applier.Apply(context.Background(), in, NewRule("func", "a", spec).WithContinue(false), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/p", res.URL.String())
	assert.False(t, res.Continue)
	assert.Equal(t, "https://a.com/p#frag", in.String())
	assert.Equal(t, 1, calls)

	failing := &LambdaSpec{Func: func(context.Context, *url.URL) (*url.URL, error) {
		return nil, errors.New("boom")
	}}
	res, err = applier.Apply(context.Background(), in, NewRule("fail", "a", failing), nil)
	require.NoError(t, err)
	assert.Equal(t, in.String(), res.URL.String())
	assert.False(t, res.Continue)
}

func TestLambdaDisabled(t *testing.T) {
	spec := &LambdaSpec{Source: `url.SetHost("x.com")`}
	res, err := NewApplier(Capabilities{}, nil).Apply(context.Background(), mustURL(t, "https://a.com/"), NewRule("off", "a", spec), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/", res.URL.String())
	assert.False(t, spec.Compiled())
}
