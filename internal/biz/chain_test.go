package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizflow/internal/biz/code"
)

type recorder struct {
	ran         []string
	compensated []string
}

func (r *recorder) step(name string, res func() Status) Runner[string] {
	return func(ctx context.Context, bc *Context, req Request[string]) Status {
		r.ran = append(r.ran, name)
		return res()
	}
}

func (r *recorder) undo(name string) CompensateFunc {
	return func(ctx context.Context, bc *Context) error {
		r.compensated = append(r.compensated, name)
		return nil
	}
}

func okStatus() Status { return Success("ok") }

func TestChain_Completed(t *testing.T) {
	rec := &recorder{}
	c := NewChain[string]("orders").
		Then("a", rec.step("a", okStatus), rec.undo("a")).
		Then("b", rec.step("b", okStatus), nil)

	rep := c.Run(context.Background(), Wrap("orders", "A-17"))

	assert.Equal(t, Completed, rep.Outcome)
	assert.Equal(t, []string{"a", "b"}, rep.Completed)
	assert.Equal(t, "b", rep.LastStep)
	assert.False(t, rep.Failed())
	assert.Empty(t, rep.CompensationErrors)
	assert.Empty(t, rec.compensated)
}

func TestChain_BreakStopsWithoutCompensation(t *testing.T) {
	rec := &recorder{}
	c := NewChain[string]("orders").
		Then("a", rec.step("a", okStatus), rec.undo("a")).
		Then("b", rec.step("b", func() Status {
			return Failure[string](orderNotFound, "A-17").Break()
		}), nil).
		Then("c", rec.step("c", okStatus), nil)

	rep := c.Run(context.Background(), Wrap("orders", "A-17"))

	assert.Equal(t, Broken, rep.Outcome)
	assert.Equal(t, []string{"a", "b"}, rec.ran)
	assert.Empty(t, rec.compensated)
	assert.True(t, rep.Failed())
	assert.Equal(t, "order A-17 not found", rep.Last.Message())
}

func TestChain_RollbackCompensatesInReverse(t *testing.T) {
	rec := &recorder{}
	c := NewChain[string]("orders").
		Then("reserve", rec.step("reserve", okStatus), rec.undo("reserve")).
		Then("charge", rec.step("charge", okStatus), rec.undo("charge")).
		Then("ship", rec.step("ship", func() Status {
			return Failure[string](code.RPCError, "carrier down").Rollback()
		}), rec.undo("ship"))

	rep := c.Run(context.Background(), Wrap("orders", "A-17"))

	assert.Equal(t, RolledBack, rep.Outcome)
	assert.Equal(t, []string{"charge", "reserve"}, rec.compensated)
	assert.Equal(t, "rpc error:carrier down", rep.Last.Message())
}

func TestChain_SuccessWithRollbackDirectiveProceeds(t *testing.T) {
	rec := &recorder{}
	c := NewChain[string]("orders").
		Then("a", rec.step("a", func() Status { return Success("x").Rollback() }), rec.undo("a")).
		Then("b", rec.step("b", okStatus), nil)

	rep := c.Run(context.Background(), Wrap("", ""))

	assert.Equal(t, Completed, rep.Outcome)
	assert.Equal(t, []string{"a", "b"}, rec.ran)
	assert.Empty(t, rec.compensated)
}

func TestChain_SoftFailure(t *testing.T) {
	soft := func() Status { return Failure[string](code.Fail, "minor") }

	rec := &recorder{}
	rep := NewChain[string]("orders").
		Then("a", rec.step("a", soft), nil).
		Then("b", rec.step("b", okStatus), nil).
		Run(context.Background(), Wrap("", ""))
	assert.Equal(t, Completed, rep.Outcome)
	assert.Equal(t, []string{"a"}, rep.SoftFailures)
	assert.Equal(t, []string{"a", "b"}, rec.ran)

	rec = &recorder{}
	rep = NewChain[string]("orders", StopOnSoftFailure()).
		Then("a", rec.step("a", soft), nil).
		Then("b", rec.step("b", okStatus), nil).
		Run(context.Background(), Wrap("", ""))
	assert.Equal(t, Broken, rep.Outcome)
	assert.Equal(t, []string{"a"}, rec.ran)
}

func TestChain_CompensationErrorsAreCollected(t *testing.T) {
	c := NewChain[string]("orders").
		Then("a", func(context.Context, *Context, Request[string]) Status { return okStatus() },
			func(context.Context, *Context) error { return errors.New("undo a failed") }).
		Then("b", func(context.Context, *Context, Request[string]) Status { return okStatus() },
			func(context.Context, *Context) error { panic("undo b exploded") }).
		Then("c", func(context.Context, *Context, Request[string]) Status {
			return Failure[string](code.Fail, "x").Rollback()
		}, nil)

	rep := c.Run(context.Background(), Wrap("", ""))

	require.Len(t, rep.CompensationErrors, 2)
	assert.EqualError(t, rep.CompensationErrors[0], "compensate b: panic: undo b exploded")
	assert.EqualError(t, rep.CompensationErrors[1], "compensate a: undo a failed")
}

func TestChain_NilStatus(t *testing.T) {
	rep := NewChain[string]("orders").
		Then("void", func(context.Context, *Context, Request[string]) Status { return nil }, nil).
		Run(context.Background(), Wrap("", ""))

	require.NotNil(t, rep.Last)
	assert.Equal(t, code.BizEmpty.Code, rep.Last.Code())
}

func TestChain_ContextSharedAndReleased(t *testing.T) {
	var seen *Context
	c := NewChain[string]("orders").
		Then("put", func(ctx context.Context, bc *Context, req Request[string]) Status {
			seen = bc
			bc.Set("id", req.Data)
			return okStatus()
		}, nil).
		Then("get", func(ctx context.Context, bc *Context, req Request[string]) Status {
			v, _ := Value[string](bc, "id")
			return Success(v + "!")
		}, nil)

	rep := c.Run(context.Background(), Wrap("", "A-17"))

	res, found := ResultOf[string](rep, "get")
	require.True(t, found)
	assert.Equal(t, "A-17!", res.Data())
	assert.True(t, seen.Released())
}

func TestChain_ReleasesContextOnPanic(t *testing.T) {
	var seen *Context
	c := NewChain[string]("orders").
		Then("boom", func(ctx context.Context, bc *Context, req Request[string]) Status {
			seen = bc
			panic("raw runner panic")
		}, nil)

	assert.Panics(t, func() { c.Run(context.Background(), Wrap("", "")) })
	require.NotNil(t, seen)
	assert.True(t, seen.Released())
}

func TestChain_LinkExecutor(t *testing.T) {
	ex := NewExecutor("double", func(ctx context.Context, bc *Context, req Request[int]) (*Result[int], error) {
		return Success(req.Data * 2), nil
	})
	c := Link(NewChain[int]("math"), ex, nil)

	rep := c.Run(context.Background(), Wrap("", 21))

	res, found := ResultOf[int](rep, "double")
	require.True(t, found)
	assert.Equal(t, 42, res.Data())
	assert.Equal(t, 1, c.Len())
}

func TestChain_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	rep := NewChain[string]("orders").
		Then("a", rec.step("a", okStatus), nil).
		Run(ctx, Wrap("", ""))

	assert.Equal(t, Broken, rep.Outcome)
	assert.Empty(t, rec.ran)
	assert.True(t, rep.Failed())
}

func TestChain_ReportHook(t *testing.T) {
	var got []Report
	c := NewChain[string]("orders", WithReportHook(func(_ context.Context, r Report) {
		got = append(got, r)
	})).
		Then("a", func(context.Context, *Context, Request[string]) Status {
			return Failure[string](code.Fail, "x").Rollback()
		}, nil)

	rep := c.Run(context.Background(), Wrap("orders", "A-17"))
	require.Len(t, got, 1)
	assert.Equal(t, rep.Outcome, got[0].Outcome)
	assert.Equal(t, RolledBack, got[0].Outcome)
	assert.Equal(t, "orders", got[0].Chain)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "broken", Broken.String())
	assert.Equal(t, "rolled_back", RolledBack.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
