// Package api wires the HTTP surface: printer and queue listings, print and
// command submission, and the audit log.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printgate/internal/api/handlers"
	"github.com/orrn/printgate/internal/api/middleware"
	"github.com/orrn/printgate/internal/core"
	"github.com/orrn/printgate/internal/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the router's collaborators. Only Service and Logger are required.
type Deps struct {
	Service        *core.Service
	Logger         logger.Logger
	RequestTimeout time.Duration

	Auditor  handlers.Auditor
	Audit    handlers.AuditLister
	Archives handlers.Archives
	Notifier handlers.Notifier
	Health   Pinger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.Timeout(d.RequestTimeout),
	)

	handlers.RegisterPrinterRoutes(r, handlers.NewPrinterHandler(d.Service, d.Logger))
	handlers.RegisterJobRoutes(r, handlers.NewJobHandler(d.Service, d.Auditor, d.Notifier, d.Logger))

	if d.Audit != nil {
		handlers.NewAuditHandler(d.Audit, d.Logger).RegisterRoutes(r)
	}
	if d.Archives != nil {
		handlers.NewArchiveHandler(d.Archives, d.Logger).RegisterRoutes(r)
	}

	r.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
