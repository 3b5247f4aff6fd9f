package biz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizflow/internal/api"
	"bizflow/internal/biz/code"
	"bizflow/internal/biz/flow"
)

func TestNew_Defaults(t *testing.T) {
	r := New[string]()

	assert.True(t, r.IsSuccess())
	assert.False(t, r.IsFailed())
	assert.Equal(t, 200, r.Code())
	assert.Equal(t, "operation succeeded", r.Message())
	assert.Equal(t, flow.Continue, r.Flow())
	assert.Equal(t, DefaultPage, r.Page())
	assert.Equal(t, DefaultPageSize, r.PageSize())
	assert.Zero(t, r.Total())
	assert.NotNil(t, r.Errors())
	assert.Empty(t, r.Errors())
	assert.NoError(t, r.Err())
}

func TestResult_BindSetsCodeAndMessageTogether(t *testing.T) {
	r := Success(1)
	r.Bind(code.Fail, "timeout")

	assert.Equal(t, code.Bound{Code: 500, Message: "run error:timeout"}, r.BizCode())
	assert.True(t, r.IsFailed())
	assert.Equal(t, 1, r.Data())

	r.Fail(code.Validation)
	assert.Equal(t, "invalid request:{0}", r.Message())
}

func TestResult_SuccessOverridesDirective(t *testing.T) {
	tests := []struct {
		name         string
		entry        code.Entry
		dir          flow.Directive
		wantBreak    bool
		wantRollback bool
	}{
		{"success with break", code.Success, flow.Break, false, false},
		{"success with rollback", code.Success, flow.Rollback, false, false},
		{"failure with continue", code.Fail, flow.Continue, false, false},
		{"failure with break", code.Fail, flow.Break, true, false},
		{"failure with rollback", code.Fail, flow.Rollback, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Failure[int](tt.entry, "x").SetFlow(tt.dir)
			assert.Equal(t, tt.wantBreak, r.NeedBreak())
			assert.Equal(t, tt.wantRollback, r.NeedRollback())
			assert.Equal(t, tt.dir, r.Flow())
			assert.NotEqual(t, r.IsSuccess(), r.IsFailed())
		})
	}
}

func TestResult_StepBreaksOnNotFound(t *testing.T) {
	notFound := code.New(40401, "order {0} not found")

	r := New[map[string]any]()
	r.Bind(notFound, "A-17")
	r.Break()

	assert.True(t, r.IsFailed())
	assert.True(t, r.NeedBreak())
	assert.False(t, r.NeedRollback())
	assert.Equal(t, "order A-17 not found", r.Message())
}

func TestResult_MarkSuccessResets(t *testing.T) {
	r := Failure[string](code.StorageError, "db down").Rollback()
	r.MarkSuccess()

	assert.True(t, r.IsSuccess())
	assert.False(t, r.NeedRollback())
	assert.Equal(t, flow.Rollback, r.Flow())

	r2 := Failure[string](code.Fail, "x").WithData("payload")
	assert.True(t, r2.IsSuccess())
	assert.Equal(t, "payload", r2.Data())
}

func TestResult_AddErrorKeepsCode(t *testing.T) {
	r := Failure[int](code.Validation, "bad")
	r.AddError(NewError(code.Fail, "a"))
	r.AddError(NewError(code.Fail, "b"))

	assert.Equal(t, 400, r.Code())
	require.Len(t, r.Errors(), 2)
	assert.Equal(t, "run error:b", r.Errors()[1].Message())

	// returned slice is a copy
	errs := r.Errors()
	errs[0] = nil
	assert.NotNil(t, r.Errors()[0])
}

func TestResult_SetListInfoNulls(t *testing.T) {
	r := Success([]int{1, 2})
	r.SetListInfo(nil, nil, nil)
	assert.Equal(t, int64(0), r.Total())
	assert.Equal(t, int64(1), r.Page())
	assert.Equal(t, int64(10), r.PageSize())

	r.SetListInfo(Int64(42), Int64(3), Int64(25))
	assert.Equal(t, int64(42), r.Total())
	assert.Equal(t, int64(3), r.Page())
	assert.Equal(t, int64(25), r.PageSize())
}

func TestEmptyList(t *testing.T) {
	r := EmptyList[string]()
	assert.True(t, r.IsSuccess())
	assert.NotNil(t, r.Data())
	assert.Empty(t, r.Data())
	assert.Equal(t, int64(0), r.Total())
	assert.Equal(t, int64(1), r.Page())
	assert.Equal(t, int64(100), r.PageSize())
}

func TestResult_Err(t *testing.T) {
	r := Failure[int](code.TokenInvalid, "abc")
	err := r.Err()
	require.Error(t, err)

	be, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, 50006001, be.Code())
	assert.Equal(t, "BIZ_TOKEN=abc is not available", be.Message())
	assert.True(t, errors.Is(err, NewError(code.TokenInvalid)))
}

func TestResult_RaisePanicsWithError(t *testing.T) {
	r := Failure[int](code.LockError)

	defer func() {
		p := recover()
		require.NotNil(t, p)
		be, ok := p.(*Error)
		require.True(t, ok)
		assert.Equal(t, code.LockError.Code, be.Code())
	}()
	r.Raise()
	t.Fatal("Raise returned")
}

func TestFromError(t *testing.T) {
	e := NewError(code.New(40901, "sku {0} exists"), "X1")
	r := FromError[string](e)

	assert.Equal(t, 40901, r.Code())
	assert.Equal(t, "sku X1 exists", r.Message())
	assert.Equal(t, flow.Continue, r.Flow())
}

func TestCreate(t *testing.T) {
	r := Create(code.Success, []string{"a"})
	assert.True(t, r.IsSuccess())
	assert.Equal(t, []string{"a"}, r.Data())
}

func TestResult_ToEnvelope(t *testing.T) {
	env := Success("hello").ToEnvelope()
	assert.Equal(t, api.Envelope[string]{Code: 200, Message: "operation succeeded", Data: "hello"}, env)
}

func TestToListEnvelope_RoundTrip(t *testing.T) {
	r := Success([]int{1, 2, 3})
	env := ToListEnvelope(r)

	assert.Equal(t, r.Code(), env.Code)
	assert.Equal(t, r.Message(), env.Message)
	assert.Equal(t, []int{1, 2, 3}, env.Data)
	assert.Equal(t, int64(3), env.Total)
	assert.Equal(t, r.Page(), env.Page)
	assert.Equal(t, r.PageSize(), env.PageSize)

	r.SetListInfo(Int64(57), Int64(2), Int64(3))
	env = ToListEnvelope(r)
	assert.Equal(t, int64(57), env.Total)
	assert.Equal(t, int64(2), env.Page)
	assert.Equal(t, int64(3), env.PageSize)
}

func TestToListEnvelope_NilData(t *testing.T) {
	r := Failure[[]int](code.StorageError, "db down")
	env := ToListEnvelope(r)

	assert.Equal(t, 50003000, env.Code)
	assert.NotNil(t, env.Data)
	assert.Empty(t, env.Data)
	assert.Zero(t, env.Total)
}

func TestFromStatus(t *testing.T) {
	src := Failure[int](code.New(40901, "sku {0} exists"), "X1").Break()
	r := FromStatus[string](src)

	assert.Equal(t, 40901, r.Code())
	assert.Equal(t, "sku X1 exists", r.Message())
	assert.Equal(t, flow.Break, r.Flow())
	assert.Empty(t, r.Data())

	assert.Equal(t, code.Unknown.Code, FromStatus[string](nil).Code())
}
