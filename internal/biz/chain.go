package biz

import (
	"context"
	"fmt"
	"log/slog"

	"bizflow/internal/biz/code"
)

// Outcome is how a chain run ended.
type Outcome int

const (
	// Completed means every link ran (soft failures included).
	Completed Outcome = iota
	// Broken means a link asked to break, or the run was canceled.
	Broken
	// RolledBack means a link asked to roll back and compensations ran.
	RolledBack
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Broken:
		return "broken"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Runner is a type-erased chain link.
type Runner[P any] func(ctx context.Context, bc *Context, req Request[P]) Status

// CompensateFunc undoes the work of a link that completed successfully.
type CompensateFunc func(ctx context.Context, bc *Context) error

// StepRunner adapts a Step to a Runner.
func StepRunner[P, R any](step Step[P, R]) Runner[P] {
	return func(ctx context.Context, bc *Context, req Request[P]) Status {
		return step.Execute(ctx, bc, req)
	}
}

type link[P any] struct {
	name       string
	run        Runner[P]
	compensate CompensateFunc
}

// ChainOption configures a Chain.
type ChainOption func(*chainOptions)

type chainOptions struct {
	logger            *slog.Logger
	stopOnSoftFailure bool
	onReport          func(context.Context, Report)
}

// WithChainLogger sets the chain logger.
func WithChainLogger(l *slog.Logger) ChainOption {
	return func(o *chainOptions) { o.logger = l }
}

// StopOnSoftFailure makes a failed result with directive Continue end the
// run as Broken instead of proceeding to the next link.
func StopOnSoftFailure() ChainOption {
	return func(o *chainOptions) { o.stopOnSoftFailure = true }
}

// WithReportHook registers fn to receive every finished report.
func WithReportHook(fn func(context.Context, Report)) ChainOption {
	return func(o *chainOptions) { o.onReport = fn }
}

// Chain runs links in order over one request and honors their directives.
type Chain[P any] struct {
	name              string
	links             []link[P]
	logger            *slog.Logger
	stopOnSoftFailure bool
	onReport          func(context.Context, Report)
}

// NewChain creates an empty chain.
func NewChain[P any](name string, opts ...ChainOption) *Chain[P] {
	o := chainOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Chain[P]{
		name:              name,
		logger:            o.logger.With(slog.String("chain", name)),
		stopOnSoftFailure: o.stopOnSoftFailure,
		onReport:          o.onReport,
	}
}

// Then appends a link. compensate may be nil.
func (c *Chain[P]) Then(name string, run Runner[P], compensate CompensateFunc) *Chain[P] {
	c.links = append(c.links, link[P]{name: name, run: run, compensate: compensate})
	return c
}

// Link appends an executor to c under the executor's name.
func Link[P, R any](c *Chain[P], ex *Executor[P, R], compensate CompensateFunc) *Chain[P] {
	return c.Then(ex.Name(), StepRunner[P, R](ex), compensate)
}

// Name returns the chain name.
func (c *Chain[P]) Name() string { return c.name }

// Len returns the number of links.
func (c *Chain[P]) Len() int { return len(c.links) }

// Report describes a finished run.
type Report struct {
	Chain   string
	Outcome Outcome
	// Last is the status of the last link that ran; nil for an empty chain.
	Last     Status
	LastStep string
	// Results holds every link status by link name.
	Results map[string]Status
	// Completed lists links that succeeded, in run order.
	Completed []string
	// SoftFailures lists links that failed with directive Continue.
	SoftFailures       []string
	CompensationErrors []error
}

// Failed reports whether the last link that ran failed.
func (r Report) Failed() bool {
	return r.Last != nil && r.Last.IsFailed()
}

// ResultOf returns the typed result of the link named step.
func ResultOf[R any](r Report, step string) (*Result[R], bool) {
	st, ok := r.Results[step]
	if !ok {
		return nil, false
	}
	res, ok := st.(*Result[R])
	return res, ok
}

// Run executes the chain with a fresh Context that is released on every exit
// path, panics included.
func (c *Chain[P]) Run(ctx context.Context, req Request[P]) Report {
	bc := NewContext()
	defer bc.Release()
	return c.RunWith(ctx, bc, req)
}

// RunWith executes the chain with a caller-owned Context. The caller is
// responsible for releasing it.
func (c *Chain[P]) RunWith(ctx context.Context, bc *Context, req Request[P]) Report {
	rep := c.run(ctx, bc, req)
	if c.onReport != nil {
		c.onReport(ctx, rep)
	}
	return rep
}

func (c *Chain[P]) run(ctx context.Context, bc *Context, req Request[P]) Report {
	rep := Report{
		Chain:   c.name,
		Outcome: Completed,
		Results: make(map[string]Status, len(c.links)),
	}

	var done []link[P]
	for _, l := range c.links {
		if err := ctx.Err(); err != nil {
			rep.Last = FaultResult[any](err)
			rep.LastStep = l.name
			rep.Outcome = Broken
			c.logger.InfoContext(ctx, "chain canceled", slog.String("step", l.name), slog.Any("error", err))
			return rep
		}

		st := l.run(ctx, bc, req)
		if st == nil {
			st = Failure[any](code.BizEmpty, l.name)
		}
		rep.Results[l.name] = st
		rep.Last = st
		rep.LastStep = l.name

		switch {
		case st.IsSuccess():
			done = append(done, l)
			rep.Completed = append(rep.Completed, l.name)
			c.logger.DebugContext(ctx, "step completed", slog.String("step", l.name))
		case st.NeedBreak():
			rep.Outcome = Broken
			c.logger.InfoContext(ctx, "chain break", c.statusAttrs(l.name, st)...)
			return rep
		case st.NeedRollback():
			rep.Outcome = RolledBack
			c.logger.WarnContext(ctx, "chain rollback", c.statusAttrs(l.name, st)...)
			rep.CompensationErrors = c.compensate(ctx, bc, done)
			return rep
		default:
			rep.SoftFailures = append(rep.SoftFailures, l.name)
			c.logger.InfoContext(ctx, "step soft failure", c.statusAttrs(l.name, st)...)
			if c.stopOnSoftFailure {
				rep.Outcome = Broken
				return rep
			}
		}
	}

	return rep
}

func (c *Chain[P]) statusAttrs(step string, st Status) []any {
	return []any{
		slog.String("step", step),
		slog.Int("code", st.Code()),
		slog.String("message", st.Message()),
		slog.String("flow", st.Flow().Code()),
	}
}

// compensate runs compensations of done links in reverse order and collects
// their failures; one failing compensation does not stop the others.
func (c *Chain[P]) compensate(ctx context.Context, bc *Context, done []link[P]) []error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		l := done[i]
		if l.compensate == nil {
			continue
		}
		if err := runCompensation(ctx, bc, l.compensate); err != nil {
			err = fmt.Errorf("compensate %s: %w", l.name, err)
			c.logger.ErrorContext(ctx, "compensation failed", slog.String("step", l.name), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		c.logger.DebugContext(ctx, "step compensated", slog.String("step", l.name))
	}
	return errs
}

func runCompensation(ctx context.Context, bc *Context, fn CompensateFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()
	return fn(ctx, bc)
}
