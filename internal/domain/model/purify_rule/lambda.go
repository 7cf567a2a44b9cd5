package model

import (
	"context"
	"fmt"
	"net/url"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// LambdaFunc is an already-callable lambda, for rules built in code.
type LambdaFunc func(ctx context.Context, u *url.URL) (*url.URL, error)

// LambdaURL is the only value a lambda expression can see. Setters return a
// modified copy, so expressions chain: url.DeleteParam("si").SetHost("x.com")
type LambdaURL struct {
	u *url.URL
}

func (l LambdaURL) Href() string     { return l.u.String() }
func (l LambdaURL) Scheme() string   { return l.u.Scheme }
func (l LambdaURL) Host() string     { return l.u.Host }
func (l LambdaURL) Hostname() string { return l.u.Hostname() }
func (l LambdaURL) Path() string     { return l.u.Path }
func (l LambdaURL) Query() string    { return l.u.RawQuery }
func (l LambdaURL) Fragment() string { return l.u.Fragment }
func (l LambdaURL) String() string   { return l.u.String() }

// Param returns the first value of name, or "".
func (l LambdaURL) Param(name string) string {
	v, _ := ParseSearchParams(l.u.RawQuery).Get(name)
	return v
}

func (l LambdaURL) HasParam(name string) bool {
	return ParseSearchParams(l.u.RawQuery).Has(name)
}

func (l LambdaURL) Params() []string {
	return ParseSearchParams(l.u.RawQuery).Names()
}

func (l LambdaURL) SetParam(name, value string) LambdaURL {
	c := cloneURL(l.u)
	sp := ParseSearchParams(c.RawQuery)
	sp.Set(name, value)
	setQuery(c, sp)
	return LambdaURL{u: c}
}

func (l LambdaURL) DeleteParam(name string) LambdaURL {
	c := cloneURL(l.u)
	sp := ParseSearchParams(c.RawQuery)
	sp.Delete(name)
	setQuery(c, sp)
	return LambdaURL{u: c}
}

func (l LambdaURL) SetQuery(raw string) LambdaURL {
	c := cloneURL(l.u)
	c.RawQuery = raw
	c.ForceQuery = false
	return LambdaURL{u: c}
}

func (l LambdaURL) SetHost(host string) LambdaURL {
	c := cloneURL(l.u)
	c.Host = host
	return LambdaURL{u: c}
}

func (l LambdaURL) SetPath(path string) LambdaURL {
	c := cloneURL(l.u)
	c.Path, c.RawPath = path, ""
	return LambdaURL{u: c}
}

func (l LambdaURL) SetScheme(scheme string) LambdaURL {
	c := cloneURL(l.u)
	c.Scheme = scheme
	return LambdaURL{u: c}
}

func (l LambdaURL) SetFragment(fragment string) LambdaURL {
	c := cloneURL(l.u)
	c.Fragment, c.RawFragment = fragment, ""
	return LambdaURL{u: c}
}

type lambdaEnv struct {
	URL LambdaURL `expr:"url"`
}

var lambdaOptions = []expr.Option{
	expr.Env(lambdaEnv{}),
	expr.Function("decode", func(params ...any) (any, error) {
		return actURL(params[0], nil)
	}, new(func(string) string)),
	expr.Function("base64", func(params ...any) (any, error) {
		return actBase64(params[0], nil)
	}, new(func(string) string)),
}

// compile returns the cached program, compiling Source on first use.
func (s *LambdaSpec) compile() (*vm.Program, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program != nil {
		return s.program, nil
	}
	program, err := expr.Compile(s.Source, lambdaOptions...)
	if err != nil {
		return nil, fmt.Errorf("compile lambda: %w", err)
	}
	s.program = program
	return program, nil
}

// Call runs the lambda against a copy of u.
func (s *LambdaSpec) Call(ctx context.Context, u *url.URL) (*url.URL, error) {
	if s.Func != nil {
		out, err := s.Func(ctx, cloneURL(u))
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, fmt.Errorf("lambda returned no URL")
		}
		return out, nil
	}
	program, err := s.compile()
	if err != nil {
		return nil, err
	}
	out, err := expr.Run(program, lambdaEnv{URL: LambdaURL{u: cloneURL(u)}})
	if err != nil {
		return nil, fmt.Errorf("run lambda: %w", err)
	}
	switch v := out.(type) {
	case LambdaURL:
		return ParseURL(v.Href(), nil)
	case *url.URL:
		return v, nil
	case string:
		return ParseURL(v, u)
	default:
		return nil, fmt.Errorf("lambda returned %T, want a URL", out)
	}
}

// Compiled reports whether the program has been built and cached.
func (s *LambdaSpec) Compiled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.program != nil
}
