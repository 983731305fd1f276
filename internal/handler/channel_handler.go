package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/arxiv-channels/internal/dto"
	"github.com/noah-isme/arxiv-channels/internal/models"
	"github.com/noah-isme/arxiv-channels/pkg/response"
)

type channelService interface {
	AddChannel(ctx context.Context, req dto.AddChannelRequest) (*models.ChannelView, error)
	GetChannel(ctx context.Context, id string) (*models.ChannelView, error)
	ReloadChannel(ctx context.Context, id string, override *dto.FetchOptionsRequest) (*models.ChannelView, error)
	DeleteChannel(ctx context.Context, id string) error
	MoveChannelToFolder(ctx context.Context, channelID string, folderID *string) error
	ReorderChannels(ctx context.Context, req dto.ReorderChannelsRequest) error
}

// ChannelHandler exposes query channel endpoints.
type ChannelHandler struct {
	service channelService
}

// NewChannelHandler builds a new handler.
func NewChannelHandler(service channelService) *ChannelHandler {
	return &ChannelHandler{service: service}
}

// Create godoc
// @Summary Run a query and save it as a channel
// @Tags Channels
// @Accept json
// @Produce json
// @Param payload body dto.AddChannelRequest true "Query payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /channels [post]
func (h *ChannelHandler) Create(c *gin.Context) {
	var req dto.AddChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid channel payload"))
		return
	}
	channel, err := h.service.AddChannel(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, channel)
}

// Get godoc
// @Summary Get a channel with its result history
// @Tags Channels
// @Produce json
// @Param id path string true "Channel ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /channels/{id} [get]
func (h *ChannelHandler) Get(c *gin.Context) {
	channel, err := h.service.GetChannel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, channel)
}

// Delete godoc
// @Summary Delete a channel
// @Tags Channels
// @Param id path string true "Channel ID"
// @Success 204
// @Router /channels/{id} [delete]
func (h *ChannelHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteChannel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reload godoc
// @Summary Fetch new papers for a channel
// @Description Appends a batch holding only papers the channel has not seen. The body is optional and overrides the current options.
// @Tags Channels
// @Accept json
// @Produce json
// @Param id path string true "Channel ID"
// @Param payload body dto.ReloadChannelRequest false "Option overrides"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /channels/{id}/reload [post]
func (h *ChannelHandler) Reload(c *gin.Context) {
	var req dto.ReloadChannelRequest
	if _, err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, invalidPayload(err, "invalid reload payload"))
		return
	}
	channel, err := h.service.ReloadChannel(c.Request.Context(), c.Param("id"), req.Options)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, channel)
}

// Move godoc
// @Summary File a channel under a folder
// @Tags Channels
// @Accept json
// @Param id path string true "Channel ID"
// @Param payload body dto.MoveChannelRequest true "Target folder, null removes it from its folder"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /channels/{id}/folder [put]
func (h *ChannelHandler) Move(c *gin.Context) {
	var req dto.MoveChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid move payload"))
		return
	}
	if err := h.service.MoveChannelToFolder(c.Request.Context(), c.Param("id"), req.FolderID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Move a channel to another channel's display position
// @Tags Channels
// @Accept json
// @Param payload body dto.ReorderChannelsRequest true "Reorder payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /channels/reorder [post]
func (h *ChannelHandler) Reorder(c *gin.Context) {
	var req dto.ReorderChannelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid reorder payload"))
		return
	}
	if err := h.service.ReorderChannels(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
