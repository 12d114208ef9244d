package handlers

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/printgate/internal/archive"
	"github.com/orrn/printgate/internal/logger"
)

// Archives is the archiver surface the handler needs.
type Archives interface {
	ListArchives() ([]*archive.ArchiveFile, error)
	CountArchived(ctx context.Context, filename string) (int, error)
	RunArchive(ctx context.Context) (int, error)
	ArchiveDays() int
}

type ArchiveHandler struct {
	archiver Archives
	log      logger.Logger
}

func NewArchiveHandler(archiver Archives, log logger.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archiver: archiver,
		log:      log.WithComponent("archives"),
	}
}

type ArchiveListResponse struct {
	Archives    []*archive.ArchiveFile `json:"archives"`
	Count       int                    `json:"count"`
	ArchiveDays int                    `json:"archive_days"`
}

func (h *ArchiveHandler) ListArchives(c *gin.Context) {
	archives, err := h.archiver.ListArchives()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list archives")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list archives"})
		return
	}
	if archives == nil {
		archives = []*archive.ArchiveFile{}
	}

	c.JSON(http.StatusOK, ArchiveListResponse{
		Archives:    archives,
		Count:       len(archives),
		ArchiveDays: h.archiver.ArchiveDays(),
	})
}

type ArchiveInfoResponse struct {
	Filename   string `json:"filename"`
	EntryCount int    `json:"entry_count"`
}

func (h *ArchiveHandler) GetArchiveInfo(c *gin.Context) {
	filename := c.Param("filename")

	n, err := h.archiver.CountArchived(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "archive not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ArchiveInfoResponse{
		Filename:   filename,
		EntryCount: n,
	})
}

type TriggerArchiveResponse struct {
	Message  string `json:"message"`
	Archived int    `json:"archived"`
	Error    string `json:"error,omitempty"`
}

func (h *ArchiveHandler) TriggerArchive(c *gin.Context) {
	n, err := h.archiver.RunArchive(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Int("archived", n).Msg("Manual archive run failed")
		c.JSON(http.StatusInternalServerError, TriggerArchiveResponse{
			Message:  "archive completed with errors",
			Archived: n,
			Error:    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, TriggerArchiveResponse{
		Message:  "archive completed successfully",
		Archived: n,
	})
}

func (h *ArchiveHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/Audit/archives", h.ListArchives)
	r.GET("/Audit/archives/:filename", h.GetArchiveInfo)
	r.POST("/Audit/archives/run", h.TriggerArchive)
}
