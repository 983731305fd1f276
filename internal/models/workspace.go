package models

import (
	"fmt"
	"time"
)

// ExecutedAtLayout is the display format for batch execution times.
const ExecutedAtLayout = "2006/01/02 15:04:05"

// ResultBatch records one query execution. Batches are never modified after creation.
type ResultBatch struct {
	Papers            []Paper      `json:"papers"`
	ExecutedAt        time.Time    `json:"executedAt"`
	ExecutedAtDisplay string       `json:"executedAtDisplay"`
	Options           FetchOptions `json:"options"`
}

// NewResultBatch stamps papers with the execution time and the options that produced them.
func NewResultBatch(papers []Paper, executedAt time.Time, options FetchOptions) ResultBatch {
	if papers == nil {
		papers = []Paper{}
	}
	return ResultBatch{
		Papers:            papers,
		ExecutedAt:        executedAt,
		ExecutedAtDisplay: executedAt.Local().Format(ExecutedAtLayout),
		Options:           options.Clone(),
	}
}

// Folder groups channels. Channels point at folders, folders do not embed channels.
type Folder struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsExpanded bool   `json:"isExpanded"`
}

// Channel is a saved query with its chronological result history.
type Channel struct {
	ID             string        `json:"id"`
	FolderID       *string       `json:"folderId"`
	Name           string        `json:"name"`
	Results        []ResultBatch `json:"results"`
	CurrentOptions FetchOptions  `json:"currentOptions"`
}

// InFolder reports whether the channel is filed under folderID.
func (c Channel) InFolder(folderID string) bool {
	return c.FolderID != nil && *c.FolderID == folderID
}

// SeenLinks collects every paper link present in any batch of the channel.
func (c Channel) SeenLinks() map[string]struct{} {
	seen := make(map[string]struct{})
	for _, batch := range c.Results {
		for _, paper := range batch.Papers {
			seen[paper.Link] = struct{}{}
		}
	}
	return seen
}

// Clone copies the channel header and the batch slice. Batches themselves are immutable and shared.
func (c Channel) Clone() Channel {
	out := c
	if c.FolderID != nil {
		folderID := *c.FolderID
		out.FolderID = &folderID
	}
	out.Results = append([]ResultBatch(nil), c.Results...)
	out.CurrentOptions = c.CurrentOptions.Clone()
	return out
}

// Workspace is the whole session state. It is replaced as a value on every mutation.
type Workspace struct {
	Folders  []Folder  `json:"folders"`
	Channels []Channel `json:"channels"`
	ActiveID *string   `json:"activeId"`
	NextID   int       `json:"-"`
}

// NewWorkspace returns an empty workspace whose first allocated id is 1.
func NewWorkspace() Workspace {
	return Workspace{Folders: []Folder{}, Channels: []Channel{}, NextID: 1}
}

// Clone returns a deep enough copy to mutate without affecting w.
func (w Workspace) Clone() Workspace {
	out := Workspace{
		Folders:  append([]Folder{}, w.Folders...),
		Channels: make([]Channel, 0, len(w.Channels)),
		NextID:   w.NextID,
	}
	for _, ch := range w.Channels {
		out.Channels = append(out.Channels, ch.Clone())
	}
	if w.ActiveID != nil {
		active := *w.ActiveID
		out.ActiveID = &active
	}
	if out.NextID < 1 {
		out.NextID = 1
	}
	return out
}

// AllocateID returns the next identifier with the given kind prefix, e.g. "channel-3".
func (w *Workspace) AllocateID(kind string) string {
	if w.NextID < 1 {
		w.NextID = 1
	}
	id := fmt.Sprintf("%s-%d", kind, w.NextID)
	w.NextID++
	return id
}

// ChannelIndex returns the display position of the channel or -1.
func (w Workspace) ChannelIndex(id string) int {
	for i, ch := range w.Channels {
		if ch.ID == id {
			return i
		}
	}
	return -1
}

// FolderIndex returns the position of the folder or -1.
func (w Workspace) FolderIndex(id string) int {
	for i, f := range w.Folders {
		if f.ID == id {
			return i
		}
	}
	return -1
}

// IsActive reports whether id is the selected channel.
func (w Workspace) IsActive(id string) bool {
	return w.ActiveID != nil && *w.ActiveID == id
}

// FolderMembership indexes channel ids by folder id, derived from each channel's FolderID.
// Channels whose folder no longer exists are reported under the empty key.
func (w Workspace) FolderMembership() map[string][]string {
	known := make(map[string]struct{}, len(w.Folders))
	for _, f := range w.Folders {
		known[f.ID] = struct{}{}
	}
	index := make(map[string][]string, len(w.Folders)+1)
	for _, ch := range w.Channels {
		key := ""
		if ch.FolderID != nil {
			if _, ok := known[*ch.FolderID]; ok {
				key = *ch.FolderID
			}
		}
		index[key] = append(index[key], ch.ID)
	}
	return index
}

// ReloadState tags whether a channel has an upstream call outstanding.
type ReloadState string

const (
	ReloadStateIdle    ReloadState = "idle"
	ReloadStateLoading ReloadState = "loading"
)

// ChannelView is the read model handed to the presentation layer.
type ChannelView struct {
	Channel
	State      ReloadState `json:"state"`
	PaperCount int         `json:"paperCount"`
}

// WorkspaceView is the read model of the whole session.
type WorkspaceView struct {
	Folders  []Folder      `json:"folders"`
	Channels []ChannelView `json:"channels"`
	ActiveID *string       `json:"activeId"`
}
