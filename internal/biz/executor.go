package biz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"bizflow/internal/biz/code"
	"bizflow/internal/shared"
)

// ProcessFunc is the body of a business step.
//
// A body reports business faults by returning an *Error (or an error wrapping
// one). Any other error, and any panic, is converted by the guard.
type ProcessFunc[P, R any] func(ctx context.Context, bc *Context, req Request[P]) (*Result[R], error)

// Step is what an orchestrator invokes.
type Step[P, R any] interface {
	Name() string
	Execute(ctx context.Context, bc *Context, req Request[P]) *Result[R]
}

var _ Step[int, int] = (*Executor[int, int])(nil)

// ExecutorOption configures an Executor.
type ExecutorOption func(*executorOptions)

type executorOptions struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// WithValidator replaces the payload validator. A nil validator disables
// struct validation; the non-nil payload check always applies.
func WithValidator(v *validator.Validate) ExecutorOption {
	return func(o *executorOptions) { o.validate = v }
}

// WithLogger sets the logger used for converted faults.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(o *executorOptions) { o.logger = l }
}

var defaultValidate = validator.New(validator.WithRequiredStructEnabled())

// Executor wraps a ProcessFunc with the step guard.
type Executor[P, R any] struct {
	name     string
	process  ProcessFunc[P, R]
	validate *validator.Validate
	logger   *slog.Logger
}

// NewExecutor creates an Executor named name around fn.
func NewExecutor[P, R any](name string, fn ProcessFunc[P, R], opts ...ExecutorOption) *Executor[P, R] {
	o := executorOptions{validate: defaultValidate, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Executor[P, R]{name: name, process: fn, validate: o.validate, logger: o.logger}
}

// Name returns the step name.
func (e *Executor[P, R]) Name() string { return e.name }

// Execute runs the step and always returns a non-nil Result.
//
// The guard rejects a nil payload and a payload failing struct validation
// with code.Validation, converts returned errors and recovered panics into
// failed results, and replaces a nil body result with code.BizEmpty. It never
// changes the directive: converted faults are returned with flow.Continue.
func (e *Executor[P, R]) Execute(ctx context.Context, bc *Context, req Request[P]) (res *Result[R]) {
	defer func() {
		if p := recover(); p != nil {
			res = e.convert(ctx, panicError(p))
		}
	}()

	if bc == nil {
		bc = NewContext()
		defer bc.Release()
	}

	if verr := e.validateRequest(ctx, req.Data); verr != nil {
		return FromError[R](verr)
	}

	out, err := e.process(ctx, bc, req)
	if err != nil {
		return e.convert(ctx, err)
	}
	if out == nil {
		return Failure[R](code.BizEmpty, e.name)
	}
	return out
}

func (e *Executor[P, R]) convert(ctx context.Context, err error) *Result[R] {
	res := FaultResult[R](err)
	level := slog.LevelDebug
	if _, ok := AsError(err); !ok {
		level = slog.LevelWarn
	}
	e.logger.LogAttrs(ctx, level, "step fault converted",
		slog.String("step", e.name),
		slog.Int("code", res.Code()),
		slog.String("message", res.Message()),
	)
	return res
}

func (e *Executor[P, R]) validateRequest(ctx context.Context, data P) *Error {
	v := reflect.ValueOf(any(data))
	if !v.IsValid() {
		return NewError(code.Validation, "request data is required")
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return NewError(code.Validation, "request data is required")
		}
	}

	if e.validate == nil || reflect.Indirect(v).Kind() != reflect.Struct {
		return nil
	}

	err := e.validate.StructCtx(ctx, data)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return NewError(code.Validation, describe(ve)).WithCause(err)
	}
	return nil
}

func describe(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// FaultResult converts an error into a failed Result:
//   - an *Error in the chain keeps its code and message;
//   - shared.KindValidation becomes code.Validation;
//   - shared.KindDependencyFailure and shared.KindTimeout become code.StorageError;
//   - anything else becomes code.Fail with the error text.
func FaultResult[R any](err error) *Result[R] {
	if be, ok := AsError(err); ok {
		return FromError[R](be)
	}
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return Failure[R](code.Validation, err.Error())
	case shared.KindDependencyFailure, shared.KindTimeout:
		return Failure[R](code.StorageError, err.Error())
	default:
		return Failure[R](code.Fail, err.Error())
	}
}

func panicError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", p)
}

// NotNil returns a validation fault when v is nil.
func NotNil(v any, what string) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return NewError(code.Validation, what+" is required")
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return NewError(code.Validation, what+" is required")
		}
	}
	return nil
}

// NotBlank returns a validation fault when s is empty or whitespace.
func NotBlank(s, what string) error {
	if strings.TrimSpace(s) == "" {
		return NewError(code.Validation, what+" must not be blank")
	}
	return nil
}
