package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/arxiv-channels/internal/dto"
	"github.com/noah-isme/arxiv-channels/internal/models"
	appErrors "github.com/noah-isme/arxiv-channels/pkg/errors"
)

// Reload result labels.
const (
	reloadResultApplied   = "applied"
	reloadResultFailed    = "failed"
	reloadResultDiscarded = "discarded"
	reloadResultRejected  = "rejected"
)

type paperFetcher interface {
	Search(ctx context.Context, term string, opts models.FetchOptions) ([]models.Paper, error)
}

type workspaceStore interface {
	Snapshot(ctx context.Context) (models.Workspace, error)
	Update(ctx context.Context, fn func(models.Workspace) (models.Workspace, error)) (models.Workspace, error)
}

var errChannelGone = errors.New("channel removed")

// ChannelService owns folders, channels and the active selection of a session.
type ChannelService struct {
	store     workspaceStore
	fetcher   paperFetcher
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	loading map[string]struct{}
}

// NewChannelService constructs a channel service.
func NewChannelService(store workspaceStore, fetcher paperFetcher, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *ChannelService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelService{
		store:     store,
		fetcher:   fetcher,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		loading:   make(map[string]struct{}),
	}
}

// Snapshot returns the read model of the whole workspace.
func (s *ChannelService) Snapshot(ctx context.Context) (*models.WorkspaceView, error) {
	ws, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read workspace")
	}
	view := &models.WorkspaceView{
		Folders:  ws.Folders,
		Channels: make([]models.ChannelView, 0, len(ws.Channels)),
		ActiveID: ws.ActiveID,
	}
	for _, ch := range ws.Channels {
		view.Channels = append(view.Channels, s.channelView(ch))
	}
	return view, nil
}

// GetChannel returns one channel with its reload state.
func (s *ChannelService) GetChannel(ctx context.Context, id string) (*models.ChannelView, error) {
	ws, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read workspace")
	}
	idx := ws.ChannelIndex(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "channel not found")
	}
	view := s.channelView(ws.Channels[idx])
	return &view, nil
}

// ChannelsInFolder lists the channels filed under folderID in display order.
func (s *ChannelService) ChannelsInFolder(ctx context.Context, folderID string) ([]string, error) {
	ws, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read workspace")
	}
	if ws.FolderIndex(folderID) < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
	}
	ids := ws.FolderMembership()[folderID]
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// CreateFolder appends a new expanded folder.
func (s *ChannelService) CreateFolder(ctx context.Context, req dto.CreateFolderRequest) (*models.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid folder payload")
	}

	var folder models.Folder
	_, err := s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		folder = models.Folder{ID: ws.AllocateID("folder"), Name: req.Name, IsExpanded: true}
		ws.Folders = append(ws.Folders, folder)
		return ws, nil
	})
	if err != nil {
		return nil, s.storeError(err)
	}
	s.logger.Info("folder created", zap.String("folder_id", folder.ID))
	return &folder, nil
}

// AddChannel runs query once and, on success, stores it as a new active channel with a single batch.
func (s *ChannelService) AddChannel(ctx context.Context, req dto.AddChannelRequest) (*models.ChannelView, error) {
	req.Query = strings.TrimSpace(req.Query)
	opts, err := s.validateAdd(req)
	if err != nil {
		return nil, err
	}
	if req.FolderID != nil {
		if err := s.ensureFolder(ctx, *req.FolderID); err != nil {
			return nil, err
		}
	}

	papers, err := s.fetcher.Search(ctx, req.Query, opts)
	if err != nil {
		return nil, fetchError(err)
	}
	batch := models.NewResultBatch(papers, s.now(), opts)

	var channel models.Channel
	_, err = s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		channel = models.Channel{
			ID:             ws.AllocateID("channel"),
			Name:           req.Query,
			Results:        []models.ResultBatch{batch},
			CurrentOptions: opts.Clone(),
		}
		if req.FolderID != nil && ws.FolderIndex(*req.FolderID) >= 0 {
			folderID := *req.FolderID
			channel.FolderID = &folderID
		}
		ws.Channels = append(ws.Channels, channel)
		active := channel.ID
		ws.ActiveID = &active
		return ws, nil
	})
	if err != nil {
		return nil, s.storeError(err)
	}

	s.logger.Info("channel added",
		zap.String("channel_id", channel.ID),
		zap.String("query", channel.Name),
		zap.Int("papers", len(batch.Papers)),
	)
	view := s.channelView(channel)
	return &view, nil
}

// ReloadChannel re-runs the channel's query with override or its current options and appends the
// papers whose links the channel has not seen yet. Only one reload per channel may be outstanding.
func (s *ChannelService) ReloadChannel(ctx context.Context, id string, override *dto.FetchOptionsRequest) (*models.ChannelView, error) {
	var requested *models.FetchOptions
	if override != nil {
		if err := s.validateOptions(*override); err != nil {
			return nil, err
		}
		opts := override.ToOptions()
		requested = &opts
	}

	ws, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, s.storeError(err)
	}
	idx := ws.ChannelIndex(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "channel not found")
	}
	current := ws.Channels[idx]
	opts := current.CurrentOptions.Normalize()
	if requested != nil {
		opts = *requested
	}

	if !s.beginReload(id) {
		s.metrics.RecordReload(reloadResultRejected, 0)
		return nil, appErrors.ErrReloadInProgress
	}
	defer s.endReload(id)

	papers, err := s.fetcher.Search(ctx, current.Name, opts)
	if err != nil {
		s.metrics.RecordReload(reloadResultFailed, 0)
		return nil, fetchError(err)
	}
	executedAt := s.now()

	var updated models.Channel
	var appended int
	_, err = s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		idx := ws.ChannelIndex(id)
		if idx < 0 {
			return ws, errChannelGone
		}
		ch := ws.Channels[idx]
		fresh := excludeSeen(papers, ch.SeenLinks())
		appended = len(fresh)
		ch.Results = append(ch.Results, models.NewResultBatch(fresh, executedAt, opts))
		ch.CurrentOptions = opts.Clone()
		ws.Channels[idx] = ch
		updated = ch
		return ws, nil
	})
	if errors.Is(err, errChannelGone) {
		s.metrics.RecordReload(reloadResultDiscarded, 0)
		s.logger.Info("reload result discarded for removed channel", zap.String("channel_id", id))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "channel not found")
	}
	if err != nil {
		return nil, s.storeError(err)
	}

	s.metrics.RecordReload(reloadResultApplied, appended)
	s.logger.Info("channel reloaded",
		zap.String("channel_id", id),
		zap.Int("fetched", len(papers)),
		zap.Int("appended", appended),
	)
	// The in-flight flag is still held here, the view reports the settled state.
	view := models.ChannelView{Channel: updated, State: models.ReloadStateIdle, PaperCount: len(updated.SeenLinks())}
	return &view, nil
}

// DeleteChannel removes a channel and clears the selection when it was active. Unknown ids are ignored.
func (s *ChannelService) DeleteChannel(ctx context.Context, id string) error {
	_, err := s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		idx := ws.ChannelIndex(id)
		if idx < 0 {
			return ws, nil
		}
		ws.Channels = append(ws.Channels[:idx], ws.Channels[idx+1:]...)
		if ws.IsActive(id) {
			ws.ActiveID = nil
		}
		return ws, nil
	})
	if err != nil {
		return s.storeError(err)
	}
	s.logger.Info("channel deleted", zap.String("channel_id", id))
	return nil
}

// DeleteFolder removes a folder together with every channel filed under it. Unknown ids are ignored.
func (s *ChannelService) DeleteFolder(ctx context.Context, id string) error {
	var removed int
	_, err := s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		idx := ws.FolderIndex(id)
		if idx < 0 {
			return ws, nil
		}
		ws.Folders = append(ws.Folders[:idx], ws.Folders[idx+1:]...)

		kept := ws.Channels[:0]
		for _, ch := range ws.Channels {
			if ch.InFolder(id) {
				removed++
				if ws.IsActive(ch.ID) {
					ws.ActiveID = nil
				}
				continue
			}
			kept = append(kept, ch)
		}
		ws.Channels = kept
		return ws, nil
	})
	if err != nil {
		return s.storeError(err)
	}
	s.logger.Info("folder deleted", zap.String("folder_id", id), zap.Int("channels_removed", removed))
	return nil
}

// MoveChannelToFolder files a channel under folderID, or under no folder when folderID is nil.
// Unknown channels are ignored. Unknown folders are rejected.
func (s *ChannelService) MoveChannelToFolder(ctx context.Context, channelID string, folderID *string) error {
	_, err := s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		idx := ws.ChannelIndex(channelID)
		if idx < 0 {
			return ws, nil
		}
		if folderID == nil {
			ws.Channels[idx].FolderID = nil
			return ws, nil
		}
		if ws.FolderIndex(*folderID) < 0 {
			return ws, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		target := *folderID
		ws.Channels[idx].FolderID = &target
		return ws, nil
	})
	if err != nil {
		return s.storeError(err)
	}
	return nil
}

// ReorderChannels moves fromID to the display position currently held by toID.
func (s *ChannelService) ReorderChannels(ctx context.Context, req dto.ReorderChannelsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reorder payload")
	}
	_, err := s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		from := ws.ChannelIndex(req.FromID)
		to := ws.ChannelIndex(req.ToID)
		if from < 0 || to < 0 || from == to {
			return ws, nil
		}
		moved := ws.Channels[from]
		rest := append(ws.Channels[:from:from], ws.Channels[from+1:]...)
		reordered := make([]models.Channel, 0, len(ws.Channels))
		reordered = append(reordered, rest[:to]...)
		reordered = append(reordered, moved)
		reordered = append(reordered, rest[to:]...)
		ws.Channels = reordered
		return ws, nil
	})
	if err != nil {
		return s.storeError(err)
	}
	return nil
}

// ToggleFolder flips a folder's expanded flag. Unknown ids are ignored.
func (s *ChannelService) ToggleFolder(ctx context.Context, id string) (*models.Folder, error) {
	var folder *models.Folder
	_, err := s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		idx := ws.FolderIndex(id)
		if idx < 0 {
			return ws, nil
		}
		ws.Folders[idx].IsExpanded = !ws.Folders[idx].IsExpanded
		toggled := ws.Folders[idx]
		folder = &toggled
		return ws, nil
	})
	if err != nil {
		return nil, s.storeError(err)
	}
	return folder, nil
}

// SetActive selects a channel, or clears the selection when id is nil.
func (s *ChannelService) SetActive(ctx context.Context, id *string) error {
	_, err := s.store.Update(ctx, func(ws models.Workspace) (models.Workspace, error) {
		if id == nil {
			ws.ActiveID = nil
			return ws, nil
		}
		if ws.ChannelIndex(*id) < 0 {
			return ws, appErrors.Clone(appErrors.ErrNotFound, "channel not found")
		}
		active := *id
		ws.ActiveID = &active
		return ws, nil
	})
	if err != nil {
		return s.storeError(err)
	}
	return nil
}

// ReloadState reports whether a reload is outstanding for the channel.
func (s *ChannelService) ReloadState(id string) models.ReloadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loading[id]; ok {
		return models.ReloadStateLoading
	}
	return models.ReloadStateIdle
}

func (s *ChannelService) beginReload(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loading[id]; ok {
		return false
	}
	s.loading[id] = struct{}{}
	return true
}

func (s *ChannelService) endReload(id string) {
	s.mu.Lock()
	delete(s.loading, id)
	s.mu.Unlock()
}

func (s *ChannelService) channelView(ch models.Channel) models.ChannelView {
	return models.ChannelView{
		Channel:    ch,
		State:      s.ReloadState(ch.ID),
		PaperCount: len(ch.SeenLinks()),
	}
}

func (s *ChannelService) ensureFolder(ctx context.Context, folderID string) error {
	ws, err := s.store.Snapshot(ctx)
	if err != nil {
		return s.storeError(err)
	}
	if ws.FolderIndex(folderID) < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "folder not found")
	}
	return nil
}

func (s *ChannelService) validateAdd(req dto.AddChannelRequest) (models.FetchOptions, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.FetchOptions{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid channel payload")
	}
	if req.Options == nil {
		return models.FetchOptions{}.Normalize(), nil
	}
	if err := s.validateOptions(*req.Options); err != nil {
		return models.FetchOptions{}, err
	}
	return req.Options.ToOptions(), nil
}

func (s *ChannelService) validateOptions(req dto.FetchOptionsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fetch options")
	}
	if req.SubmittedDateAfter != nil && req.SubmittedDateBefore != nil &&
		req.SubmittedDateAfter.After(req.SubmittedDateBefore.Time) {
		return appErrors.Clone(appErrors.ErrValidation, "submittedDateAfter must not be later than submittedDateBefore")
	}
	return nil
}

func (s *ChannelService) storeError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	s.logger.Error("workspace update failed", zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update workspace")
}

func fetchError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, appErrors.ErrFetchFailed.Message)
}

func excludeSeen(papers []models.Paper, seen map[string]struct{}) []models.Paper {
	fresh := make([]models.Paper, 0, len(papers))
	for _, paper := range papers {
		if _, ok := seen[paper.Link]; ok {
			continue
		}
		seen[paper.Link] = struct{}{}
		fresh = append(fresh, paper)
	}
	return fresh
}
