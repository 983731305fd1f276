package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/arxiv-channels/internal/dto"
	"github.com/noah-isme/arxiv-channels/internal/models"
	appErrors "github.com/noah-isme/arxiv-channels/pkg/errors"
	"github.com/noah-isme/arxiv-channels/pkg/response"
)

type workspaceService interface {
	Snapshot(ctx context.Context) (*models.WorkspaceView, error)
	SetActive(ctx context.Context, id *string) error
}

type queryCachePurger interface {
	Purge(ctx context.Context) error
	CacheEnabled() bool
}

// WorkspaceHandler exposes the session-wide read model and selection.
type WorkspaceHandler struct {
	service workspaceService
	queries queryCachePurger
}

// NewWorkspaceHandler builds a new handler. queries may be nil.
func NewWorkspaceHandler(service workspaceService, queries queryCachePurger) *WorkspaceHandler {
	return &WorkspaceHandler{service: service, queries: queries}
}

// Get godoc
// @Summary Get the workspace
// @Description Folders, channels in display order with their reload state, and the active channel.
// @Tags Workspace
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /workspace [get]
func (h *WorkspaceHandler) Get(c *gin.Context) {
	view, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// SetActive godoc
// @Summary Select the active channel
// @Tags Workspace
// @Accept json
// @Produce json
// @Param payload body dto.SetActiveRequest true "Channel to select, null clears"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /active [put]
func (h *WorkspaceHandler) SetActive(c *gin.Context) {
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid active payload"))
		return
	}
	if err := h.service.SetActive(c.Request.Context(), req.ChannelID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"activeId": req.ChannelID})
}

// PurgeCache godoc
// @Summary Drop cached arXiv responses
// @Tags Workspace
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /cache [delete]
func (h *WorkspaceHandler) PurgeCache(c *gin.Context) {
	if h.queries == nil || !h.queries.CacheEnabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrFeatureDisabled, "query cache disabled"))
		return
	}
	if err := h.queries.Purge(c.Request.Context()); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge query cache"))
		return
	}
	response.NoContent(c)
}
