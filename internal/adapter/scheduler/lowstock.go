package scheduler

import (
	"context"
	"log/slog"

	"bizflow/internal/biz"
	"bizflow/internal/inventory"
	"bizflow/internal/platform/logger"
)

// LowStockJob reports items whose quantity is below threshold.
func LowStockJob(svc *inventory.Service, threshold int64, log *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		res := svc.LowStock(ctx, biz.Wrap(inventory.BizType, &inventory.LowStockQuery{Threshold: threshold}))
		if res.IsFailed() {
			return res.Err()
		}
		items := res.Data()
		if len(items) == 0 {
			log.DebugContext(ctx, "stock levels ok", slog.Int64("threshold", threshold), logger.ResultAttrs(res))
			return nil
		}
		for _, it := range items {
			log.WarnContext(ctx, "low stock",
				slog.Int64("id", it.ID),
				slog.String("sku", it.SKU),
				slog.Int64("quantity", it.Quantity),
				slog.Int64("threshold", threshold),
			)
		}
		return nil
	}
}
