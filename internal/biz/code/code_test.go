package code_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizflow/internal/biz/code"
)

func TestEntry_Bind(t *testing.T) {
	tests := []struct {
		name     string
		entry    code.Entry
		args     []string
		expected code.Bound
	}{
		{
			name:     "single placeholder",
			entry:    code.New(500, "run error:{0}"),
			args:     []string{"disk full"},
			expected: code.Bound{Code: 500, Message: "run error:disk full"},
		},
		{
			name:     "placeholders out of order",
			entry:    code.New(400, "{1} before {0}"),
			args:     []string{"a", "b"},
			expected: code.Bound{Code: 400, Message: "b before a"},
		},
		{
			name:     "repeated placeholder",
			entry:    code.New(1, "{0}-{0}"),
			args:     []string{"x"},
			expected: code.Bound{Code: 1, Message: "x-x"},
		},
		{
			name:     "missing argument keeps placeholder",
			entry:    code.New(500, "run error:{0} at {1}"),
			args:     []string{"disk full"},
			expected: code.Bound{Code: 500, Message: "run error:disk full at {1}"},
		},
		{
			name:     "no arguments",
			entry:    code.New(500, "run error:{0}"),
			args:     nil,
			expected: code.Bound{Code: 500, Message: "run error:{0}"},
		},
		{
			name:     "non numeric braces untouched",
			entry:    code.New(50004000, "lock {} {name} {-1} {+0}"),
			args:     []string{"a"},
			expected: code.Bound{Code: 50004000, Message: "lock {} {name} {-1} {+0}"},
		},
		{
			name:     "unterminated brace",
			entry:    code.New(2, "value {0"),
			args:     []string{"a"},
			expected: code.Bound{Code: 2, Message: "value {0"},
		},
		{
			name:     "extra arguments ignored",
			entry:    code.New(200, "operation succeeded"),
			args:     []string{"unused"},
			expected: code.Bound{Code: 200, Message: "operation succeeded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.entry.Bind(tt.args...))
		})
	}
}

func TestEntry_BindIsPure(t *testing.T) {
	entry := code.New(500, "run error:{0}")
	args := []string{"disk full"}

	first := entry.Bind(args...)
	second := entry.Bind(args...)

	assert.Equal(t, first, second)
	assert.Equal(t, "run error:{0}", entry.Template, "entry must not be mutated")
}

func TestBound_Entry(t *testing.T) {
	b := code.New(404, "item {0} not found").Bind("42")
	again := b.Entry().Bind()
	assert.Equal(t, b, again)
}

func TestCatalog(t *testing.T) {
	c, err := code.NewCatalog("test", code.New(2, "b"), code.New(1, "a"))
	require.NoError(t, err)

	assert.Equal(t, "test", c.Name())
	assert.Equal(t, 2, c.Len())

	e, ok := c.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "a", e.Template)

	_, ok = c.Lookup(3)
	assert.False(t, ok)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Code)
	assert.Equal(t, 2, entries[1].Code)
}

func TestCatalog_Duplicate(t *testing.T) {
	_, err := code.NewCatalog("dup", code.New(1, "a"), code.New(1, "b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate code 1")

	assert.Panics(t, func() {
		code.MustCatalog("dup", code.New(1, "a"), code.New(1, "b"))
	})
}

func TestSystemCatalog(t *testing.T) {
	e, ok := code.System.Lookup(code.SuccessCode)
	require.True(t, ok)
	assert.Equal(t, code.Success, e)

	assert.True(t, code.IsInfrastructure(code.StorageError.Code))
	assert.True(t, code.IsInfrastructure(code.RPCError.Code+5))
	assert.False(t, code.IsInfrastructure(code.Fail.Code))
	assert.False(t, code.IsInfrastructure(code.BizEmpty.Code))
}
