package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/arxiv-channels/internal/dto"
	"github.com/noah-isme/arxiv-channels/internal/models"
	appErrors "github.com/noah-isme/arxiv-channels/pkg/errors"
	"github.com/noah-isme/arxiv-channels/pkg/jobs"
)

// JobTypeChannelReload identifies queued channel reloads.
const JobTypeChannelReload = "channel_reload"

type channelReloader interface {
	ChannelsInFolder(ctx context.Context, folderID string) ([]string, error)
	ReloadChannel(ctx context.Context, id string, override *dto.FetchOptionsRequest) (*models.ChannelView, error)
}

type jobQueue interface {
	TryEnqueue(job jobs.Job) error
}

// FolderReloader reloads every channel of a folder in the background.
type FolderReloader struct {
	channels channelReloader
	queue    jobQueue
	logger   *zap.Logger
}

// NewFolderReloader constructs a folder reloader. Attach a queue with SetQueue before use.
func NewFolderReloader(channels channelReloader, logger *zap.Logger) *FolderReloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderReloader{channels: channels, logger: logger}
}

// SetQueue attaches the dispatcher whose handler is HandleJob.
func (r *FolderReloader) SetQueue(queue jobQueue) {
	r.queue = queue
}

// ReloadFolder queues a reload with current options for each channel in the folder and returns their ids.
func (r *FolderReloader) ReloadFolder(ctx context.Context, folderID string) (*dto.FolderReloadResponse, error) {
	if r.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "folder reload is not available")
	}
	ids, err := r.channels.ChannelsInFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	queued := make([]string, 0, len(ids))
	for _, id := range ids {
		job := jobs.Job{ID: fmt.Sprintf("%s:%s", folderID, id), Type: JobTypeChannelReload, Payload: id}
		if err := r.queue.TryEnqueue(job); err != nil {
			if errors.Is(err, jobs.ErrQueueFull) {
				r.logger.Warn("folder reload truncated", zap.String("folder_id", folderID), zap.Int("queued", len(queued)), zap.Int("channels", len(ids)))
				break
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue folder reload")
		}
		queued = append(queued, id)
	}

	r.logger.Info("folder reload queued", zap.String("folder_id", folderID), zap.Int("channels", len(queued)))
	return &dto.FolderReloadResponse{FolderID: folderID, ChannelIDs: queued}, nil
}

// HandleJob executes one queued channel reload.
func (r *FolderReloader) HandleJob(ctx context.Context, job jobs.Job) error {
	channelID, ok := job.Payload.(string)
	if !ok || channelID == "" {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	_, err := r.channels.ReloadChannel(ctx, channelID, nil)
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && (appErr.Code == appErrors.ErrReloadInProgress.Code || appErr.Code == appErrors.ErrNotFound.Code) {
		r.logger.Debug("queued reload skipped", zap.String("channel_id", channelID), zap.String("reason", appErr.Code))
		return nil
	}
	return err
}
