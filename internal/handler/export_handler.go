package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/arxiv-channels/internal/service"
	"github.com/noah-isme/arxiv-channels/pkg/response"
)

type channelExporter interface {
	Export(ctx context.Context, channelID, format string) (*service.ExportResult, error)
}

// ExportHandler streams channel history downloads.
type ExportHandler struct {
	service channelExporter
}

// NewExportHandler builds a new handler.
func NewExportHandler(service channelExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export godoc
// @Summary Download a channel's papers
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Channel ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /channels/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	result, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}
