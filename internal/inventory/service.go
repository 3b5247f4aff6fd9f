package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"bizflow/internal/biz"
	"bizflow/internal/biz/code"
	"bizflow/internal/shared"
	"bizflow/internal/store"
)

// Context keys written by the create chain.
const (
	keyCreated = "inventory.created"
)

// Service exposes the inventory steps.
type Service struct {
	repo   Store
	tx     Transactor
	logger *slog.Logger
	now    func() time.Time
	hook   func(context.Context, biz.Report)

	get      *biz.Executor[*ItemRef, Item]
	list     *biz.Executor[*ItemQuery, []Item]
	adjust   *biz.Executor[*Adjustment, Item]
	remove   *biz.Executor[*ItemRef, Item]
	lowStock *biz.Executor[*LowStockQuery, []Item]
	create   *biz.Chain[*NewItem]
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTransactor runs the adjust and delete steps inside tx.
func WithTransactor(tx Transactor) Option {
	return func(s *Service) { s.tx = tx }
}

// WithReportHook receives the report of every create-item run.
func WithReportHook(fn func(context.Context, biz.Report)) Option {
	return func(s *Service) { s.hook = fn }
}

// NewService builds the inventory steps over repo.
func NewService(repo Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, tx: noTx{}, logger: logger.With(slog.String("domain", BizType)), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	xo := biz.WithLogger(s.logger)
	s.get = biz.NewExecutor("get-item", s.getItem, xo)
	s.list = biz.NewExecutor("list-items", s.listItems, xo)
	s.adjust = biz.NewExecutor("adjust-quantity", s.adjustQuantity, xo)
	s.remove = biz.NewExecutor("delete-item", s.deleteItem, xo)
	s.lowStock = biz.NewExecutor("low-stock", s.lowStockItems, xo)

	s.create = biz.NewChain[*NewItem]("create-item",
		biz.WithChainLogger(s.logger), biz.StopOnSoftFailure(), biz.WithReportHook(s.hook))
	biz.Link(s.create, biz.NewExecutor("check-sku", s.checkSKU, xo), nil)
	biz.Link(s.create, biz.NewExecutor("insert-item", s.insertItem, xo), s.undoInsert)
	biz.Link(s.create, biz.NewExecutor("verify-item", s.verifyItem, xo), nil)
	return s
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, req biz.Request[*ItemRef]) *biz.Result[Item] {
	return s.get.Execute(ctx, nil, req)
}

// List returns one page of items with paging metadata.
func (s *Service) List(ctx context.Context, req biz.Request[*ItemQuery]) *biz.Result[[]Item] {
	return s.list.Execute(ctx, nil, req)
}

// Adjust adds Delta to the quantity of an item.
func (s *Service) Adjust(ctx context.Context, req biz.Request[*Adjustment]) *biz.Result[Item] {
	return s.adjust.Execute(ctx, nil, req)
}

// Delete removes an item and returns it.
func (s *Service) Delete(ctx context.Context, req biz.Request[*ItemRef]) *biz.Result[Item] {
	return s.remove.Execute(ctx, nil, req)
}

// LowStock lists items whose quantity is below the threshold.
func (s *Service) LowStock(ctx context.Context, req biz.Request[*LowStockQuery]) *biz.Result[[]Item] {
	return s.lowStock.Execute(ctx, nil, req)
}

// Create runs the create chain: a duplicate SKU breaks it, a failed
// verification rolls the insert back and any other failure stops it.
func (s *Service) Create(ctx context.Context, req biz.Request[*NewItem]) *biz.Result[Item] {
	rep := s.create.Run(ctx, req)
	if rep.Outcome == biz.Completed && !rep.Failed() {
		if res, ok := biz.ResultOf[Item](rep, "verify-item"); ok {
			return res
		}
	}
	if len(rep.CompensationErrors) > 0 {
		s.logger.ErrorContext(ctx, "create rollback incomplete", slog.Int("errors", len(rep.CompensationErrors)))
	}
	return biz.FromStatus[Item](rep.Last)
}

func (s *Service) getItem(ctx context.Context, _ *biz.Context, req biz.Request[*ItemRef]) (*biz.Result[Item], error) {
	item, err := s.repo.Fetch(ctx, req.Data.ID)
	if err != nil {
		return nil, s.fault(err, req.Data.ID)
	}
	return biz.Success(item), nil
}

func (s *Service) listItems(ctx context.Context, _ *biz.Context, req biz.Request[*ItemQuery]) (*biz.Result[[]Item], error) {
	q := req.Data
	pq := q.PageQuery.Normalize()

	cond := store.Where()
	if q.SKU != "" {
		cond.Eq(FieldSKU, q.SKU)
	}
	if q.MinQuantity != nil {
		cond.Gte(FieldQuantity, *q.MinQuantity)
	}

	items, total, err := s.repo.Query(ctx, cond, store.PageOf(pq.Page, pq.PageSize))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	res := biz.Success(items)
	res.SetListInfo(&total, &pq.Page, &pq.PageSize)
	return res, nil
}

func (s *Service) adjustQuantity(ctx context.Context, _ *biz.Context, req biz.Request[*Adjustment]) (*biz.Result[Item], error) {
	adj := req.Data
	if adj.Delta == math.MinInt64 {
		return biz.Failure[Item](code.Validation, "delta is out of range"), nil
	}

	var item Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.repo.AdjustQuantity(ctx, adj.ID, adj.Delta, s.now().UTC())
		if err == nil || !shared.IsConflict(err) {
			return err
		}
		cur, ferr := s.repo.Fetch(ctx, adj.ID)
		if ferr != nil {
			return ferr
		}
		return refusal(cur, adj.Delta)
	})
	if err != nil {
		return nil, s.fault(err, adj.ID)
	}
	return biz.Success(item), nil
}

// refusal explains why delta could not be applied to cur.
func refusal(cur Item, delta int64) error {
	if delta > 0 {
		return biz.NewError(code.Validation, "quantity of item "+itoa(cur.ID)+" would overflow")
	}
	return biz.NewError(InsufficientStock, itoa(cur.ID), itoa(cur.Quantity), itoa(-delta))
}

func (s *Service) deleteItem(ctx context.Context, _ *biz.Context, req biz.Request[*ItemRef]) (*biz.Result[Item], error) {
	var item Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if item, err = s.repo.Fetch(ctx, req.Data.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, item.ID)
	})
	if err != nil {
		return nil, s.fault(err, req.Data.ID)
	}
	return biz.Success(item), nil
}

func (s *Service) lowStockItems(ctx context.Context, _ *biz.Context, req biz.Request[*LowStockQuery]) (*biz.Result[[]Item], error) {
	const batch = 500
	cond := store.Where().Lt(FieldQuantity, req.Data.Threshold).OrderBy(FieldQuantity, false)
	items, total, err := s.repo.Query(ctx, cond, store.Page{Limit: batch})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Item{}
	}
	res := biz.Success(items)
	res.SetListInfo(&total, biz.Int64(biz.DefaultPage), biz.Int64(batch))
	return res, nil
}

func (s *Service) checkSKU(ctx context.Context, _ *biz.Context, req biz.Request[*NewItem]) (*biz.Result[bool], error) {
	_, total, err := s.repo.Query(ctx, store.Where().Eq(FieldSKU, req.Data.SKU), store.Page{Limit: 1})
	if err != nil {
		return nil, err
	}
	if total > 0 {
		return biz.Failure[bool](DuplicateSKU, req.Data.SKU).Break(), nil
	}
	return biz.Success(true), nil
}

func (s *Service) insertItem(ctx context.Context, bc *biz.Context, req biz.Request[*NewItem]) (*biz.Result[Item], error) {
	now := s.now().UTC()
	item := Item{
		SKU:       req.Data.SKU,
		Name:      req.Data.Name,
		Quantity:  req.Data.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, &item); err != nil {
		if shared.IsConflict(err) {
			return biz.Failure[Item](DuplicateSKU, item.SKU).Break(), nil
		}
		return nil, err
	}
	bc.Set(keyCreated, item)
	return biz.Success(item), nil
}

func (s *Service) undoInsert(ctx context.Context, bc *biz.Context) error {
	item, ok := biz.Value[Item](bc, keyCreated)
	if !ok {
		return nil
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil && !shared.IsNotFound(err) {
		return fmt.Errorf("delete item %d: %w", item.ID, err)
	}
	return nil
}

func (s *Service) verifyItem(ctx context.Context, bc *biz.Context, req biz.Request[*NewItem]) (*biz.Result[Item], error) {
	created, ok := biz.Value[Item](bc, keyCreated)
	if !ok {
		return biz.Failure[Item](ItemNotPersisted, req.Data.SKU).Rollback(), nil
	}
	stored, err := s.repo.Fetch(ctx, created.ID)
	if err != nil || stored.SKU != created.SKU || stored.Quantity != created.Quantity {
		if err != nil && !shared.IsNotFound(err) {
			s.logger.WarnContext(ctx, "verify item", slog.Int64("id", created.ID), slog.Any("error", err))
		}
		return biz.Failure[Item](ItemNotPersisted, req.Data.SKU).Rollback(), nil
	}
	return biz.Success(stored), nil
}

// fault maps repository errors onto inventory codes. Errors it does not
// recognise are returned unchanged for the step guard to classify.
func (s *Service) fault(err error, id int64) error {
	switch {
	case shared.IsNotFound(err):
		return biz.NewError(ItemNotFound, itoa(id)).WithCause(err)
	default:
		return err
	}
}

// noTx runs fn directly.
type noTx struct{}

func (noTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
