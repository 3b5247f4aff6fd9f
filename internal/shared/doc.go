// Package shared contains the application-wide error taxonomy used to
// classify faults that are not business errors.
//
// # Error Kinds
//
// Faults coming from collaborators (storage, remote calls, validation
// libraries) are classified into kinds via sentinel errors:
//
//   - ErrNotFound: record not found
//   - ErrValidation: request payload failed validation
//   - ErrUnauthorized: missing or invalid credentials
//   - ErrConflict: record conflicts with current state
//   - ErrInternal: unexpected internal fault
//   - ErrTimeout: operation timed out
//   - ErrInvariantViolated: domain rule violated
//   - ErrDependencyFailure: storage or remote dependency failed
//
// Use KindOf() to classify:
//
//	switch shared.KindOf(err) {
//	case shared.KindValidation:
//	    // request problem
//	case shared.KindDependencyFailure, shared.KindTimeout:
//	    // infrastructure problem
//	}
//
// # Marking
//
// Storage adapters mark driver errors so that business steps never inspect
// driver types:
//
//	if errors.Is(err, sql.ErrNoRows) {
//	    return shared.MarkKind(err, shared.KindNotFound)
//	}
//	return shared.MarkKind(err, shared.KindDependencyFailure)
//
// # Kind Priority
//
// When several kinds are present (errors.Join), KindOf returns the first in
// this order: Canceled, Timeout, NotFound, Validation, Unauthorized,
// Conflict, DependencyFailure, Internal, InvariantViolated.
//
// Mapping kinds to numeric business codes happens in package biz, and
// mapping codes to transport statuses happens in the adapters.
package shared
