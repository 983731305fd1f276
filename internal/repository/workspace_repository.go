package repository

import (
	"context"
	"sync"

	"github.com/noah-isme/arxiv-channels/internal/models"
)

// WorkspaceRepository holds the session workspace in memory. Every mutation replaces the whole value.
type WorkspaceRepository struct {
	mu        sync.RWMutex
	workspace models.Workspace
}

// NewWorkspaceRepository constructs a repository holding an empty workspace.
func NewWorkspaceRepository() *WorkspaceRepository {
	return &WorkspaceRepository{workspace: models.NewWorkspace()}
}

// Snapshot returns a copy of the current workspace.
func (r *WorkspaceRepository) Snapshot(ctx context.Context) (models.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return models.Workspace{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workspace.Clone(), nil
}

// Update applies fn to a copy of the workspace and stores the result. When fn fails the stored value is untouched.
func (r *WorkspaceRepository) Update(ctx context.Context, fn func(models.Workspace) (models.Workspace, error)) (models.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return models.Workspace{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := fn(r.workspace.Clone())
	if err != nil {
		return models.Workspace{}, err
	}
	r.workspace = next
	return next.Clone(), nil
}
