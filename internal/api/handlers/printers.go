package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printgate/internal/core"
	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/spooler"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ExtendedPrinter is a printer with its full backend property set.
type ExtendedPrinter struct {
	spooler.Printer
	Properties map[string]any `json:"Properties"`
}

type QueueResponse struct {
	Printer             string        `json:"Printer"`
	Location            string        `json:"Location"`
	NumberOfJobs        int           `json:"NumberOfJobs"`
	Jobs                []spooler.Job `json:"Jobs"`
	QueueDriver         string        `json:"QueueDriver"`
	QueuePort           string        `json:"QueuePort"`
	QueuePrintProcessor string        `json:"QueuePrintProcessor"`
	spooler.QueueStatus
}

type PrintersQuery struct {
	Options string `form:"options"`
}

type PrinterHandler struct {
	svc *core.Service
	log logger.Logger
}

func NewPrinterHandler(svc *core.Service, log logger.Logger) *PrinterHandler {
	return &PrinterHandler{
		svc: svc,
		log: log.WithComponent("printers"),
	}
}

func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	var q PrintersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	printers, err := h.svc.ListPrinters(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to enumerate printers")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "spooler_error",
			Message: "Failed to retrieve printers",
		})
		return
	}

	if strings.EqualFold(strings.TrimSpace(q.Options), "extended") {
		extended := make([]ExtendedPrinter, 0, len(printers))
		for _, p := range printers {
			props := p.Properties
			if props == nil {
				props = map[string]any{}
			}
			extended = append(extended, ExtendedPrinter{Printer: p, Properties: props})
		}
		c.JSON(http.StatusOK, extended)
		return
	}

	if printers == nil {
		printers = []spooler.Printer{}
	}
	c.JSON(http.StatusOK, printers)
}

func (h *PrinterHandler) ListQueues(c *gin.Context) {
	queues, err := h.svc.ListQueues(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to enumerate print queues")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "spooler_error",
			Message: "Failed to retrieve print queues",
		})
		return
	}

	responses := make([]QueueResponse, 0, len(queues))
	for _, q := range queues {
		responses = append(responses, queueToResponse(q))
	}

	c.JSON(http.StatusOK, responses)
}

func queueToResponse(q spooler.Queue) QueueResponse {
	jobs := q.Jobs
	if jobs == nil {
		jobs = []spooler.Job{}
	}
	return QueueResponse{
		Printer:             q.Printer,
		Location:            q.Location,
		NumberOfJobs:        len(jobs),
		Jobs:                jobs,
		QueueDriver:         q.Driver,
		QueuePort:           q.Port,
		QueuePrintProcessor: q.PrintProcessor,
		QueueStatus:         q.Status,
	}
}

func RegisterPrinterRoutes(r gin.IRoutes, h *PrinterHandler) {
	r.GET("/Printers", h.ListPrinters)
	r.GET("/PrintQueue", h.ListQueues)
}
