package compile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/interp"
	"github.com/roach88/objsql/internal/optimizer"
	"github.com/roach88/objsql/internal/qerr"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// Compiled is the output of one compilation.
type Compiled struct {
	ID      string
	Dialect string
	SQL     string
	Params  []any
}

// Pipeline compiles expression trees for one dialect.
type Pipeline struct {
	dialect   sqlfmt.Dialect
	evaluator *interp.Evaluator
	logger    *slog.Logger
	metrics   *Metrics
	ids       IDGenerator
	options   sqlfmt.Options
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEvaluator sets the evaluator used for partial evaluation.
// Default: an Evaluator over interp.NewRecordRuntime().
func WithEvaluator(ev *interp.Evaluator) Option {
	return func(p *Pipeline) { p.evaluator = ev }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics enables metrics. Default: none recorded.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithIDGenerator sets the compilation ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(p *Pipeline) { p.ids = g }
}

// WithFormatOptions sets the formatter options.
func WithFormatOptions(o sqlfmt.Options) Option {
	return func(p *Pipeline) { p.options = o }
}

// New creates a Pipeline targeting d.
func New(d sqlfmt.Dialect, opts ...Option) *Pipeline {
	p := &Pipeline{
		dialect:   d,
		evaluator: interp.NewEvaluator(interp.NewRecordRuntime()),
		logger:    slog.Default(),
		ids:       UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dialect returns the target dialect.
func (p *Pipeline) Dialect() sqlfmt.Dialect { return p.dialect }

type pass struct {
	name string
	run  sqlfmt.Pass
}

func (p *Pipeline) passes() []pass {
	return []pass{
		{"partial-evaluate", func(n expr.Node) (expr.Node, error) { return optimizer.PartialEvaluate(n, p.evaluator) }},
		{"expand-objects", optimizer.ExpandObjectComparisons},
		{"lift-aggregates", optimizer.RewriteAggregateSubqueries},
	}
}

// Optimize runs the optimizer passes over n without formatting.
func (p *Pipeline) Optimize(ctx context.Context, n expr.Node) (expr.Node, error) {
	return p.optimize(ctx, p.ids.Generate(), n)
}

func (p *Pipeline) optimize(ctx context.Context, id string, n expr.Node) (expr.Node, error) {
	for _, ps := range p.passes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := p.timed(id, ps.name, func() (expr.Node, error) { return ps.run(n) })
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ps.name, err)
		}
		n = out
	}
	return n, nil
}

// Compile optimizes n and renders it in the pipeline's dialect.
func (p *Pipeline) Compile(ctx context.Context, n expr.Node) (*Compiled, error) {
	if n == nil {
		return nil, qerr.ContractViolation("Compile", "nil tree")
	}
	id := p.ids.Generate()
	name := p.dialect.Name()

	res, err := p.compile(ctx, id, n)
	if err != nil {
		p.count(name, "error")
		p.logger.Debug("compilation failed",
			"id", id,
			"dialect", name,
			"code", qerr.CodeOf(err),
			"error", err)
		return nil, err
	}

	p.count(name, "ok")
	p.logger.Debug("compiled",
		"id", id,
		"dialect", name,
		"params", len(res.Params))
	return &Compiled{ID: id, Dialect: name, SQL: res.SQL, Params: res.Params}, nil
}

func (p *Pipeline) compile(ctx context.Context, id string, n expr.Node) (*sqlfmt.Result, error) {
	n, err := p.optimize(ctx, id, n)
	if err != nil {
		return nil, err
	}
	var res *sqlfmt.Result
	_, err = p.timed(id, "format", func() (expr.Node, error) {
		var err error
		res, err = sqlfmt.Format(n, p.dialect, p.options)
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) timed(id, name string, run func() (expr.Node, error)) (expr.Node, error) {
	start := time.Now()
	out, err := run()
	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.PassDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
	p.logger.Debug("pass finished",
		"id", id,
		"pass", name,
		"elapsed", elapsed,
		"ok", err == nil)
	return out, err
}

func (p *Pipeline) count(dialect, outcome string) {
	if p.metrics != nil {
		p.metrics.Compilations.WithLabelValues(dialect, outcome).Inc()
	}
}
