package biz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizflow/internal/biz/code"
)

func TestNewError_BindsEagerly(t *testing.T) {
	args := []string{"disk full"}
	e := NewError(code.Fail, args...)
	args[0] = "changed"

	assert.Equal(t, 500, e.Code())
	assert.Equal(t, "run error:disk full", e.Message())
	assert.Equal(t, []string{"disk full"}, e.Args())
	assert.Equal(t, code.Fail, e.Entry())
	assert.Equal(t, "biz error 500: run error:disk full", e.Error())
}

func TestError_UnknownFallback(t *testing.T) {
	var nilErr *Error
	assert.Equal(t, code.Unknown.Code, nilErr.Code())
	assert.Equal(t, code.Unknown.Template, nilErr.Message())

	var zero Error
	assert.Equal(t, -1, zero.Code())
	assert.Equal(t, "unknown message", zero.Message())
	assert.Equal(t, code.Unknown, zero.Entry())
}

func TestNewErrorCode(t *testing.T) {
	e := NewErrorCode(404, "not found")
	assert.Equal(t, code.Bound{Code: 404, Message: "not found"}, e.Bound())
}

func TestFailf(t *testing.T) {
	e := Failf("item %d broken", 3)
	assert.Equal(t, "run error:item 3 broken", e.Message())
}

func TestError_IsAndAs(t *testing.T) {
	e := NewError(code.Validation, "sku")
	wrapped := fmt.Errorf("step: %w", e)

	assert.True(t, errors.Is(wrapped, NewError(code.Validation, "other args")))
	assert.False(t, errors.Is(wrapped, NewError(code.Fail)))

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Same(t, e, got)

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestError_WithCause(t *testing.T) {
	root := errors.New("driver: connection reset")
	e := NewError(code.StorageError, "insert item").WithCause(root)

	assert.ErrorIs(t, e, root)
	assert.NotContains(t, e.Message(), "connection reset")
}
