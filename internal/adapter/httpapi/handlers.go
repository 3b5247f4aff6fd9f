package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bizflow/internal/api"
	"bizflow/internal/biz"
	"bizflow/internal/biz/code"
	"bizflow/internal/inventory"
)

type handlers struct {
	svc *inventory.Service
}

type quantityBody struct {
	Delta int64 `json:"delta"`
}

func (h *handlers) create(c *gin.Context) {
	var body inventory.NewItem
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, api.Error[*inventory.Item](code.Validation, err.Error()))
		return
	}
	res := h.svc.Create(c.Request.Context(), biz.Wrap(inventory.BizType, &body))
	respond(c, res.ToEnvelope())
}

func (h *handlers) get(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	res := h.svc.Get(c.Request.Context(), biz.Wrap(inventory.BizType, &inventory.ItemRef{ID: id}))
	respond(c, res.ToEnvelope())
}

func (h *handlers) list(c *gin.Context) {
	var q inventory.ItemQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		b := code.Validation.Bind(err.Error())
		respondList(c, api.List[inventory.Item](b.Code, b.Message, nil))
		return
	}
	res := h.svc.List(c.Request.Context(), biz.Wrap(inventory.BizType, &q))
	respondList(c, biz.ToListEnvelope(res))
}

func (h *handlers) adjust(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	var body quantityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond(c, api.Error[*inventory.Item](code.Validation, err.Error()))
		return
	}
	res := h.svc.Adjust(c.Request.Context(), biz.Wrap(inventory.BizType, &inventory.Adjustment{ID: id, Delta: body.Delta}))
	respond(c, res.ToEnvelope())
}

func (h *handlers) remove(c *gin.Context) {
	id, ok := itemID(c)
	if !ok {
		return
	}
	res := h.svc.Delete(c.Request.Context(), biz.Wrap(inventory.BizType, &inventory.ItemRef{ID: id}))
	respond(c, res.ToEnvelope())
}

func health(check HealthFunc, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				log.WarnContext(c.Request.Context(), "health check failed", slog.Any("error", err))
				respond(c, api.Error[string](code.StorageError, "unavailable"))
				return
			}
		}
		respond(c, api.Success("ok"))
	}
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond(c, api.Error[*inventory.Item](code.Validation, "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func respond[T any](c *gin.Context, env api.Envelope[T]) {
	c.Set(resultKey, env.Code)
	c.JSON(http.StatusOK, env)
}

func respondList[E any](c *gin.Context, env api.ListEnvelope[E]) {
	c.Set(resultKey, env.Code)
	c.JSON(http.StatusOK, env)
}
