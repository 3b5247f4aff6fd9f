package biz

// Request is the input handed to a business step.
type Request[P any] struct {
	// BizType identifies the business line the call belongs to.
	BizType string `json:"bizType"`
	Data    P      `json:"data"`
}

// Wrap builds a Request.
func Wrap[P any](bizType string, data P) Request[P] {
	return Request[P]{BizType: bizType, Data: data}
}

// PageQuery carries paging parameters for list steps.
type PageQuery struct {
	Page     int64 `json:"page" form:"page" validate:"gte=0"`
	PageSize int64 `json:"pageSize" form:"pageSize" validate:"gte=0,lte=1000"`
	// Count is the caller-known total, -1 when unknown.
	Count int64 `json:"count" form:"count"`
}

// DefaultPageQuery returns page 1, size 10, unknown count.
func DefaultPageQuery() PageQuery {
	return PageQuery{Page: DefaultPage, PageSize: DefaultPageSize, Count: -1}
}

// Normalize replaces unset values with defaults.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}

// Offset returns the number of records preceding the page.
func (q PageQuery) Offset() int64 {
	q = q.Normalize()
	return (q.Page - 1) * q.PageSize
}
