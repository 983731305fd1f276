package dto

import "github.com/noah-isme/arxiv-channels/internal/models"

// FetchOptionsRequest carries query options from the client.
type FetchOptionsRequest struct {
	MaxResults          int          `json:"maxResults" validate:"omitempty,min=1,max=30"`
	SubmittedDateAfter  *models.Date `json:"submittedDateAfter"`
	SubmittedDateBefore *models.Date `json:"submittedDateBefore"`
}

// ToOptions converts the request into normalized fetch options.
func (r FetchOptionsRequest) ToOptions() models.FetchOptions {
	return models.FetchOptions{
		MaxResults:          r.MaxResults,
		SubmittedDateAfter:  r.SubmittedDateAfter,
		SubmittedDateBefore: r.SubmittedDateBefore,
	}.Normalize()
}

// CreateFolderRequest describes payload for creating a folder.
type CreateFolderRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AddChannelRequest describes payload for running a new query channel.
type AddChannelRequest struct {
	Query    string               `json:"query" validate:"required,max=500"`
	FolderID *string              `json:"folderId"`
	Options  *FetchOptionsRequest `json:"options"`
}

// ReloadChannelRequest optionally overrides the channel's current options.
type ReloadChannelRequest struct {
	Options *FetchOptionsRequest `json:"options"`
}

// MoveChannelRequest reassigns a channel; a null folderId removes it from its folder.
type MoveChannelRequest struct {
	FolderID *string `json:"folderId"`
}

// ReorderChannelsRequest moves FromID to the position held by ToID.
type ReorderChannelsRequest struct {
	FromID string `json:"fromId" validate:"required"`
	ToID   string `json:"toId" validate:"required"`
}

// SetActiveRequest selects a channel; a null channelId clears the selection.
type SetActiveRequest struct {
	ChannelID *string `json:"channelId"`
}

// FolderReloadResponse lists the channels queued for reload.
type FolderReloadResponse struct {
	FolderID   string   `json:"folderId"`
	ChannelIDs []string `json:"channelIds"`
}
