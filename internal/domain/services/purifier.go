package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	model "go_purlfy/internal/domain/model/purify_rule"
	configs "go_purlfy/internal/infra/config"
	"go_purlfy/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxIterations = 5
	noRuleLabel          = "N/A"
)

// Options 净化引擎配置
type Options struct {
	FetchEnabled  bool // redirect / visit
	LambdaEnabled bool
	MaxIterations int
	Statistics    model.Statistics // 初始计数
	Log           model.Sink
	Fetcher       model.Fetcher
	BaseURL       *url.URL // 解析相对 URL 时使用
}

// PurifyResult is the outcome of one Purify call. Rule is
// "<description> by <author>" of the first matched rule, or "N/A".
type PurifyResult struct {
	URL  string `json:"url"`
	Rule string `json:"rule"`
}

// Purifier owns a rule tree and the cumulative statistics. It is safe for
// concurrent use.
type Purifier struct {
	opts    Options
	applier *model.Applier

	treeMu sync.RWMutex
	tree   *model.RuleTree

	statsMu sync.Mutex
	stats   model.Statistics

	subsMu  sync.Mutex
	subs    map[uint64]func(model.Statistics)
	nextSub uint64
}

func NewPurifier(opts Options) *Purifier {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Log == nil {
		opts.Log = model.NopSink
	}
	caps := model.Capabilities{FetchEnabled: opts.FetchEnabled, LambdaEnabled: opts.LambdaEnabled}
	return &Purifier{
		opts:    opts,
		applier: model.NewApplier(caps, opts.Fetcher),
		tree:    model.NewRuleTree(),
		stats:   opts.Statistics,
		subs:    make(map[uint64]func(model.Statistics)),
	}
}

// NewPurifierFromConfig 按配置创建引擎, 诊断信息写入全局 logger
func NewPurifierFromConfig(c *configs.Config, fetcher model.Fetcher) (*Purifier, error) {
	opts := Options{
		FetchEnabled:  c.Engine.Fetch(),
		LambdaEnabled: c.Engine.LambdaEnabled,
		MaxIterations: c.Engine.MaxIterations,
		Statistics:    c.Engine.Statistics,
		Log:           utils.LogSink(logrus.Fields{"component": "purifier"}),
		Fetcher:       fetcher,
	}
	if c.Engine.BaseURL != "" {
		base, err := url.Parse(c.Engine.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid engine.baseURL: %w", err)
		}
		opts.BaseURL = base
	}
	return NewPurifier(opts), nil
}

// Purify runs the match/apply loop on rawURL. An unparseable rawURL comes
// back unchanged with rule "N/A". The only error is ctx's: a purification
// cut short by cancellation commits no statistics.
func (p *Purifier) Purify(ctx context.Context, rawURL string) (*PurifyResult, error) {
	traceID := uuid.NewString()
	logf := func(format string, args ...any) {
		p.opts.Log(fmt.Sprintf("[%s] ", traceID) + fmt.Sprintf(format, args...))
	}

	logf("Purifying URL: %s", rawURL)
	u, err := model.ParseURL(rawURL, p.opts.BaseURL)
	if err != nil {
		logf("Cannot parse URL %s: %v", rawURL, err)
		return &PurifyResult{URL: rawURL, Rule: noRuleLabel}, nil
	}

	var (
		first     *model.Rule
		increment model.Statistics
		cont      = true
	)
	for i := 1; cont && i <= p.opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sink := func(msg string) { logf("[#%d] %s", i, msg) }

		if !model.IsHTTPScheme(u.Scheme) {
			sink("Not a HTTP URL: " + u.String())
			break
		}
		rule := p.match(model.Segments(u), sink)
		if rule == nil {
			sink("No matching rule found for " + u.String())
			break
		}
		if first == nil {
			first = rule
		}
		sink("Matching rule: " + rule.Label())

		res, err := p.applier.Apply(ctx, u, rule, sink)
		if err != nil {
			return nil, err
		}
		u, cont = res.URL, res.Continue
		increment = increment.Add(res.Increment)
		sink("Purified URL: " + u.String())
	}

	result := &PurifyResult{URL: u.String(), Rule: noRuleLabel}
	if first != nil {
		result.Rule = first.Label()
		if result.URL != rawURL {
			increment.URL++
			p.increment(increment)
		}
	}
	return result, nil
}

func (p *Purifier) match(segments []string, sink model.Sink) *model.Rule {
	p.treeMu.RLock()
	defer p.treeMu.RUnlock()
	return p.tree.Match(segments, p.applier.Caps, sink)
}

// ImportRules deep-merges trees into the live tree, in order; later keys win.
func (p *Purifier) ImportRules(trees ...*model.RuleTree) {
	p.treeMu.Lock()
	defer p.treeMu.Unlock()
	for _, t := range trees {
		p.tree.Merge(t)
	}
}

// ImportRulesJSON parses every document before importing any of them.
func (p *Purifier) ImportRulesJSON(docs ...[]byte) error {
	trees := make([]*model.RuleTree, 0, len(docs))
	for i, doc := range docs {
		t, err := model.ParseRuleTree(doc)
		if err != nil {
			return fmt.Errorf("rule document %d: %w", i, err)
		}
		trees = append(trees, t)
	}
	p.ImportRules(trees...)
	return nil
}

func (p *Purifier) ClearRules() {
	p.treeMu.Lock()
	defer p.treeMu.Unlock()
	p.tree = model.NewRuleTree()
}

// RuleCount is the number of leaf rules currently loaded.
func (p *Purifier) RuleCount() int {
	p.treeMu.RLock()
	defer p.treeMu.RUnlock()
	return p.tree.CountRules()
}

func (p *Purifier) GetStatistics() model.Statistics {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// ClearStatistics commits the negated counters, so subscribers see it as
// an ordinary increment.
func (p *Purifier) ClearStatistics() {
	p.statsMu.Lock()
	delta := p.stats.Negate()
	p.stats = model.Statistics{}
	p.statsMu.Unlock()
	p.notify(delta)
}

func (p *Purifier) increment(delta model.Statistics) {
	p.statsMu.Lock()
	p.stats = p.stats.Add(delta)
	p.statsMu.Unlock()
	p.notify(delta)
}

// Subscribe registers fn for every committed statistics change. fn runs on
// the committing goroutine and receives the delta.
func (p *Purifier) Subscribe(fn func(delta model.Statistics)) (cancel func()) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	return func() {
		p.subsMu.Lock()
		defer p.subsMu.Unlock()
		delete(p.subs, id)
	}
}

func (p *Purifier) notify(delta model.Statistics) {
	p.subsMu.Lock()
	fns := make([]func(model.Statistics), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.subsMu.Unlock()
	for _, fn := range fns {
		fn(delta)
	}
}
