// Package biz implements the business result protocol: every step returns a
// Result carrying a status code, a bound message, optional paged data and a
// flow directive telling the orchestrator whether to continue, break or roll
// back.
//
// # Faults
//
// Business rule violations are *Error values bound eagerly from a catalog
// entry:
//
//	return nil, biz.NewError(inventory.ItemNotFound, id)
//
// # Steps
//
// An Executor wraps a step body with a guard that validates the request,
// recovers panics and converts every fault into a failed Result, so callers
// always get a Result back:
//
//	exec := biz.NewExecutor("get-item", func(ctx context.Context, bc *biz.Context, req biz.Request[int64]) (*biz.Result[Item], error) {
//	    ...
//	})
//	res := exec.Execute(ctx, biz.NewContext(), biz.Wrap("inventory", int64(7)))
//
// # Chains
//
// A Chain runs steps in order and honors each directive. The per-chain
// Context is created and released by the chain, or supplied by the caller
// who then owns its lifecycle.
package biz
