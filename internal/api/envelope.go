// Package api defines the boundary-facing response envelopes handed to
// transport layers for serialization.
package api

import "bizflow/internal/biz/code"

// Default list paging values used when an envelope is built directly from a
// payload rather than projected from a business result.
const (
	DefaultListPageSize   = 20
	DefaultSinglePageSize = 10
)

// Envelope is the single-item response shape.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ListEnvelope is the list/paged response shape.
type ListEnvelope[E any] struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Data     []E    `json:"data"`
	Total    int64  `json:"total"`
	Page     int64  `json:"page"`
	PageSize int64  `json:"pageSize"`
}

// Result builds an Envelope from a code, a message and a payload.
func Result[T any](code int, message string, data T) Envelope[T] {
	return Envelope[T]{Code: code, Message: message, Data: data}
}

// Bind builds an Envelope from a catalog entry bound with args.
func Bind[T any](entry code.Entry, data T, args ...string) Envelope[T] {
	b := entry.Bind(args...)
	return Result(b.Code, b.Message, data)
}

// Success builds a success Envelope.
func Success[T any](data T) Envelope[T] {
	return Bind(code.Success, data)
}

// Error builds a failed Envelope carrying the zero payload.
func Error[T any](entry code.Entry, args ...string) Envelope[T] {
	var zero T
	return Bind(entry, zero, args...)
}

// List builds a ListEnvelope from a code, a message and items.
//
// A nil slice yields empty data with page 0; otherwise total is len(items)
// and page 1. Page size defaults to DefaultListPageSize.
func List[E any](code int, message string, items []E) ListEnvelope[E] {
	env := ListEnvelope[E]{
		Code:     code,
		Message:  message,
		PageSize: DefaultListPageSize,
	}
	if items == nil {
		env.Data = []E{}
		return env
	}
	env.Data = append(make([]E, 0, len(items)), items...)
	env.Total = int64(len(items))
	env.Page = 1
	return env
}

// Single builds a ListEnvelope holding exactly one item.
func Single[E any](code int, message string, item E) ListEnvelope[E] {
	return ListEnvelope[E]{
		Code:     code,
		Message:  message,
		Data:     []E{item},
		Total:    1,
		Page:     1,
		PageSize: DefaultSinglePageSize,
	}
}

// SuccessList builds a success ListEnvelope.
func SuccessList[E any](items []E) ListEnvelope[E] {
	b := code.Success.Bind()
	return List(b.Code, b.Message, items)
}

// ListError builds a failed ListEnvelope with the generic failure code.
func ListError[E any](message string) ListEnvelope[E] {
	b := code.Fail.Bind(message)
	return List[E](b.Code, b.Message, nil)
}
