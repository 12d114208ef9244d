package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printgate/internal/api/middleware"
	"github.com/orrn/printgate/internal/core"
	"github.com/orrn/printgate/internal/db"
	"github.com/orrn/printgate/internal/logger"
	"github.com/orrn/printgate/internal/webhook"
)

// TextResponse carries the human readable outcome of a submission.
type TextResponse struct {
	Response string `json:"Response"`
}

// Auditor records submissions. Failures never change the response.
type Auditor interface {
	InsertAudit(ctx context.Context, e *db.AuditEntry) error
}

// Notifier publishes submission events.
type Notifier interface {
	PrintSubmitted(data webhook.PrintEventData)
	PrintFailed(data webhook.PrintEventData)
	CommandDispatched(data webhook.CommandEventData)
}

type JobHandler struct {
	svc      *core.Service
	auditor  Auditor
	notifier Notifier
	log      logger.Logger
}

// NewJobHandler builds the print and command handler. auditor and notifier
// may be nil.
func NewJobHandler(svc *core.Service, auditor Auditor, notifier Notifier, log logger.Logger) *JobHandler {
	return &JobHandler{
		svc:      svc,
		auditor:  auditor,
		notifier: notifier,
		log:      log.WithComponent("jobs"),
	}
}

func (h *JobHandler) Print(c *gin.Context) {
	var req core.PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_json",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	res, err := h.svc.Print(ctx, req)
	msg := core.PrintMessage(res, err)
	requestID := middleware.GetRequestID(c)

	entry := &db.AuditEntry{
		RequestID: requestID,
		Action:    db.ActionPrint,
		Printer:   res.Printer,
		Document:  res.Document,
		DataType:  string(res.DataType),
		Bytes:     res.Bytes,
		Outcome:   outcomeOf(err),
		ErrorCode: codeOf(err),
		Message:   msg,
	}
	h.record(ctx, entry)

	event := h.log.Info()
	if err != nil {
		event = h.log.Warn().Err(err)
	}
	event.Str("request_id", requestID).
		Str("printer", res.Printer).
		Str("document", res.Document).
		Str("data_type", string(res.DataType)).
		Int("bytes", res.Bytes).
		Msg("Print request handled")

	if h.notifier != nil && entry.Outcome != db.OutcomeRejected {
		data := webhook.PrintEventData{
			RequestID: requestID,
			Printer:   res.Printer,
			Document:  res.Document,
			DataType:  string(res.DataType),
			Bytes:     res.Bytes,
		}
		if err != nil {
			data.Error = msg
			data.ErrorCode = entry.ErrorCode
			h.notifier.PrintFailed(data)
		} else {
			h.notifier.PrintSubmitted(data)
		}
	}

	c.JSON(http.StatusOK, TextResponse{Response: msg})
}

func (h *JobHandler) Command(c *gin.Context) {
	var req core.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_json",
			Message: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	res, err := h.svc.Command(ctx, req)
	msg := core.CommandMessage(res, err)
	requestID := middleware.GetRequestID(c)
	selector := core.NewSelector(req.JobID, req.DocumentName).String()

	h.record(ctx, &db.AuditEntry{
		RequestID: requestID,
		Action:    db.ActionCommand,
		Printer:   res.Printer,
		Selector:  selector,
		Affected:  res.Affected,
		Outcome:   outcomeOf(err),
		ErrorCode: codeOf(err),
		Message:   msg,
	})

	event := h.log.Info()
	if err != nil {
		event = h.log.Warn().Err(err)
	}
	event.Str("request_id", requestID).
		Str("printer", res.Printer).
		Str("selector", selector).
		Int("affected", res.Affected).
		Msg("Command request handled")

	if h.notifier != nil && err == nil {
		h.notifier.CommandDispatched(webhook.CommandEventData{
			RequestID: requestID,
			Command:   res.Command.String(),
			Printer:   res.Printer,
			Selector:  selector,
			Affected:  res.Affected,
		})
	}

	c.JSON(http.StatusOK, TextResponse{Response: msg})
}

func (h *JobHandler) record(ctx context.Context, e *db.AuditEntry) {
	if h.auditor == nil {
		return
	}
	if err := h.auditor.InsertAudit(context.WithoutCancel(ctx), e); err != nil {
		h.log.Error().Err(err).Str("request_id", e.RequestID).Msg("Failed to record audit entry")
	}
}

func outcomeOf(err error) string {
	var ve *core.ValidationError
	switch {
	case err == nil:
		return db.OutcomeOK
	case errors.As(err, &ve):
		return db.OutcomeRejected
	default:
		return db.OutcomeFailed
	}
}

func codeOf(err error) int {
	var se *core.SpoolError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func RegisterJobRoutes(r gin.IRoutes, h *JobHandler) {
	r.POST("/Print", h.Print)
	r.POST("/Command", h.Command)
}
