package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/arxiv-channels/internal/dto"
	"github.com/noah-isme/arxiv-channels/internal/models"
	"github.com/noah-isme/arxiv-channels/pkg/response"
)

type folderService interface {
	CreateFolder(ctx context.Context, req dto.CreateFolderRequest) (*models.Folder, error)
	DeleteFolder(ctx context.Context, id string) error
	ToggleFolder(ctx context.Context, id string) (*models.Folder, error)
}

type folderReloader interface {
	ReloadFolder(ctx context.Context, folderID string) (*dto.FolderReloadResponse, error)
}

// FolderHandler exposes folder management endpoints.
type FolderHandler struct {
	service  folderService
	reloader folderReloader
}

// NewFolderHandler builds a new handler.
func NewFolderHandler(service folderService, reloader folderReloader) *FolderHandler {
	return &FolderHandler{service: service, reloader: reloader}
}

// Create godoc
// @Summary Create a folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param payload body dto.CreateFolderRequest true "Folder payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /folders [post]
func (h *FolderHandler) Create(c *gin.Context) {
	var req dto.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid folder payload"))
		return
	}
	folder, err := h.service.CreateFolder(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, folder)
}

// Delete godoc
// @Summary Delete a folder and its channels
// @Tags Folders
// @Param id path string true "Folder ID"
// @Success 204
// @Router /folders/{id} [delete]
func (h *FolderHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteFolder(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Toggle godoc
// @Summary Expand or collapse a folder
// @Tags Folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} response.Envelope
// @Success 204
// @Router /folders/{id}/toggle [post]
func (h *FolderHandler) Toggle(c *gin.Context) {
	folder, err := h.service.ToggleFolder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if folder == nil {
		response.NoContent(c)
		return
	}
	response.JSON(c, http.StatusOK, folder)
}

// Reload godoc
// @Summary Reload every channel in a folder
// @Description Queues one reload per channel with its current options and returns immediately.
// @Tags Folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /folders/{id}/reload [post]
func (h *FolderHandler) Reload(c *gin.Context) {
	result, err := h.reloader.ReloadFolder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, result)
}
