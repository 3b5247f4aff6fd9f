package biz

import (
	"bizflow/internal/api"
	"bizflow/internal/biz/code"
	"bizflow/internal/biz/flow"
)

// Paging defaults applied by SetListInfo and EmptyList.
const (
	DefaultPage          int64 = 1
	DefaultPageSize      int64 = 10
	DefaultEmptyPageSize int64 = 100
)

// Status is the read view of a result that orchestrators need, independent
// of the payload type.
type Status interface {
	Code() int
	Message() string
	Flow() flow.Directive
	IsSuccess() bool
	IsFailed() bool
	NeedBreak() bool
	NeedRollback() bool
	Err() error
}

var _ Status = (*Result[any])(nil)

// Result is the envelope returned by every business step.
//
// Code and message are always set together through Bind, Fail, MarkSuccess
// or WithData. A Result is owned by the call that built it.
type Result[T any] struct {
	code     int
	message  string
	data     T
	errors   []*Error
	flow     flow.Directive
	total    int64
	page     int64
	pageSize int64
}

// New returns a success result with default paging.
func New[T any]() *Result[T] {
	return newResult[T](code.Success)
}

func newResult[T any](entry code.Entry, args ...string) *Result[T] {
	r := &Result[T]{
		errors:   []*Error{},
		flow:     flow.Continue,
		page:     DefaultPage,
		pageSize: DefaultPageSize,
	}
	r.Bind(entry, args...)
	return r
}

// Success returns a success result carrying data.
func Success[T any](data T) *Result[T] {
	r := New[T]()
	r.data = data
	return r
}

// Failure returns a result bound from entry and args. The directive stays
// Continue; escalating to Break or Rollback is the caller's decision.
func Failure[T any](entry code.Entry, args ...string) *Result[T] {
	return newResult[T](entry, args...)
}

// FromError returns a failed result carrying the code and message of e.
func FromError[T any](e *Error) *Result[T] {
	return Failure[T](e.Bound().Entry())
}

// FromStatus returns a result with the code, message and directive of st and
// a zero payload. A nil st yields code.Unknown.
func FromStatus[T any](st Status) *Result[T] {
	if st == nil {
		return Failure[T](code.Unknown)
	}
	r := Failure[T](code.New(st.Code(), st.Message()))
	r.flow = st.Flow()
	return r
}

// Create returns a result bound from entry, carrying data.
func Create[T any](entry code.Entry, data T) *Result[T] {
	r := newResult[T](entry)
	r.data = data
	return r
}

// EmptyList returns a success result with an empty, non-nil list.
func EmptyList[E any]() *Result[[]E] {
	r := Success([]E{})
	r.SetListInfo(Int64(0), Int64(DefaultPage), Int64(DefaultEmptyPageSize))
	return r
}

// Bind sets code and message from entry bound with args.
func (r *Result[T]) Bind(entry code.Entry, args ...string) {
	b := entry.Bind(args...)
	r.code = b.Code
	r.message = b.Message
}

// Fail sets code and message from entry without arguments.
func (r *Result[T]) Fail(entry code.Entry) *Result[T] {
	r.Bind(entry)
	return r
}

// MarkSuccess resets code and message to success.
func (r *Result[T]) MarkSuccess() *Result[T] {
	r.Bind(code.Success)
	return r
}

// WithData marks the result successful and sets data.
func (r *Result[T]) WithData(data T) *Result[T] {
	r.MarkSuccess()
	r.data = data
	return r
}

// Break sets the directive to flow.Break.
func (r *Result[T]) Break() *Result[T] {
	r.flow = flow.Break
	return r
}

// Rollback sets the directive to flow.Rollback.
func (r *Result[T]) Rollback() *Result[T] {
	r.flow = flow.Rollback
	return r
}

// SetFlow sets the directive.
func (r *Result[T]) SetFlow(d flow.Directive) *Result[T] {
	r.flow = d
	return r
}

// SetData replaces the payload without touching code or message.
func (r *Result[T]) SetData(data T) { r.data = data }

// Code returns the status code.
func (r *Result[T]) Code() int { return r.code }

// Message returns the bound message.
func (r *Result[T]) Message() string { return r.message }

// BizCode returns code and message as a bound value.
func (r *Result[T]) BizCode() code.Bound {
	return code.Bound{Code: r.code, Message: r.message}
}

// Data returns the payload.
func (r *Result[T]) Data() T { return r.data }

// Flow returns the stored directive.
func (r *Result[T]) Flow() flow.Directive { return r.flow }

// Total returns the total number of records for list payloads.
func (r *Result[T]) Total() int64 { return r.total }

// Page returns the current page, starting at 1.
func (r *Result[T]) Page() int64 { return r.page }

// PageSize returns the page size.
func (r *Result[T]) PageSize() int64 { return r.pageSize }

// Errors returns the accumulated sub-errors.
func (r *Result[T]) Errors() []*Error {
	return append([]*Error{}, r.errors...)
}

// AddError appends a sub-error. It never changes code or message.
func (r *Result[T]) AddError(e *Error) {
	r.errors = append(r.errors, e)
}

// SetListInfo sets paging metadata. Nil total becomes 0, nil page becomes 1
// and nil pageSize becomes 10.
func (r *Result[T]) SetListInfo(total, page, pageSize *int64) {
	r.total = valueOr(total, 0)
	r.page = valueOr(page, DefaultPage)
	r.pageSize = valueOr(pageSize, DefaultPageSize)
}

// IsSuccess reports whether the code is the success code.
func (r *Result[T]) IsSuccess() bool { return r.code == code.SuccessCode }

// IsFailed is the negation of IsSuccess.
func (r *Result[T]) IsFailed() bool { return !r.IsSuccess() }

// NeedBreak reports a failed result whose directive is Break.
// A successful result never needs a break, whatever directive is stored.
func (r *Result[T]) NeedBreak() bool {
	return !r.IsSuccess() && r.flow == flow.Break
}

// NeedRollback reports a failed result whose directive is Rollback.
// A successful result never needs a rollback, whatever directive is stored.
func (r *Result[T]) NeedRollback() bool {
	return !r.IsSuccess() && r.flow == flow.Rollback
}

// Err returns nil on success and an *Error carrying code and message
// otherwise.
func (r *Result[T]) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return r.asError()
}

// Raise panics with an *Error built from the current code and message,
// whether or not the result is successful. Boundary adapters that use
// panic-based propagation recover it (see httpapi.Recovery).
func (r *Result[T]) Raise() {
	panic(r.asError())
}

func (r *Result[T]) asError() *Error {
	return NewErrorCode(r.code, r.message)
}

// ToEnvelope projects the result into a single-item envelope.
func (r *Result[T]) ToEnvelope() api.Envelope[T] {
	return api.Result(r.code, r.message, r.data)
}

// ToListEnvelope projects a list result into a list envelope, copying the
// paging fields. When total was never set it falls back to the item count.
func ToListEnvelope[E any](r *Result[[]E]) api.ListEnvelope[E] {
	env := api.List(r.code, r.message, r.data)
	if r.total > 0 || r.data == nil {
		env.Total = r.total
	}
	env.Page = r.page
	env.PageSize = r.pageSize
	return env
}

// Int64 returns a pointer to v, for SetListInfo call sites.
func Int64(v int64) *int64 { return &v }

func valueOr(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}
