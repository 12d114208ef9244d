package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printgate/internal/db"
	"github.com/orrn/printgate/internal/logger"
)

type AuditLister interface {
	ListAudit(ctx context.Context, f db.AuditFilter) ([]db.AuditEntry, error)
}

type ListAuditQuery struct {
	Printer string `form:"printer"`
	Action  string `form:"action" binding:"omitempty,oneof=print command"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

type AuditHandler struct {
	store AuditLister
	log   logger.Logger
}

func NewAuditHandler(store AuditLister, log logger.Logger) *AuditHandler {
	return &AuditHandler{store: store, log: log.WithComponent("audit")}
}

func (h *AuditHandler) ListAudit(c *gin.Context) {
	var q ListAuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	entries, err := h.store.ListAudit(c.Request.Context(), db.AuditFilter{
		Printer: q.Printer,
		Action:  q.Action,
		Limit:   q.Limit,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list audit entries")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve audit entries",
		})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *AuditHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/Audit", h.ListAudit)
}
