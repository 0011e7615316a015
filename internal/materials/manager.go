// Package materials manages a project's uploaded documents: sequential
// uploads with per-file progress, archive routing, filename classification,
// single-slot tagging and deletion.
//
// Local state is a re-fetchable copy of the server's categorization. Tag
// changes are applied locally first and rolled back if the backend rejects
// them; successful changes re-fetch the full payload so derived item
// statuses match the server.
package materials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/raphaelgruber/visadesk/internal/client"
	"github.com/raphaelgruber/visadesk/internal/models"
)

// ErrPartialDelete is returned by DeleteAll when some files could not be deleted.
var ErrPartialDelete = errors.New("some files were not deleted")

// Backend is the subset of the API client the manager needs.
type Backend interface {
	MaterialCollection(ctx context.Context, projectID string) (*models.MaterialCollection, error)
	UploadMaterial(ctx context.Context, projectID, fileName string, r io.Reader, meta client.UploadMeta) (*models.MaterialFile, error)
	UploadZip(ctx context.Context, projectID, fileName string, r io.Reader) (*models.ZipUploadResult, error)
	SetFileTags(ctx context.Context, projectID string, fileID int64, tags []models.FileTag) error
	DeleteMaterialFile(ctx context.Context, projectID string, fileID int64) error
}

// Manager holds the material state of one project. All methods are safe for
// concurrent use.
type Manager struct {
	backend   Backend
	projectID string
	logger    *slog.Logger

	// OnProgress, when set, receives the upload list after every change.
	OnProgress func([]UploadProgress)

	mu         sync.Mutex
	categories []models.MaterialCategory
	files      []models.MaterialFile
	tags       map[int64][]models.FileTag
	saving     map[int64]bool
	uploads    []UploadProgress
}

// NewManager creates a manager for projectID. Call Refresh to load state.
func NewManager(backend Backend, projectID string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:   backend,
		projectID: projectID,
		logger:    logger.With("project_id", projectID),
		tags:      make(map[int64][]models.FileTag),
		saving:    make(map[int64]bool),
	}
}

// Refresh replaces local state with the server's categorization payload.
func (m *Manager) Refresh(ctx context.Context) error {
	coll, err := m.backend.MaterialCollection(ctx, m.projectID)
	if err != nil {
		return fmt.Errorf("load materials: %w", err)
	}
	coll.Normalize()

	tags := make(map[int64][]models.FileTag, len(coll.FileTags))
	for id, t := range coll.FileTags {
		tags[id] = slices.Clone(t)
	}

	m.mu.Lock()
	m.categories = coll.Categories
	m.files = coll.Files
	m.tags = tags
	m.mu.Unlock()
	return nil
}

// Categories returns the checklist categories as last loaded.
func (m *Manager) Categories() []models.MaterialCategory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.categories)
}

// Files returns the project's uploaded files.
func (m *Manager) Files() []models.MaterialFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.files)
}

// Tags returns the tag list of a file.
func (m *Manager) Tags(fileID int64) []models.FileTag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.tags[fileID])
}

// Tag returns the single slot a file is assigned to. Files without a known
// tag report the sentinel slot.
func (m *Manager) Tag(fileID int64) models.FileTag {
	tags := m.Tags(fileID)
	if len(tags) == 0 {
		return models.SentinelTag
	}
	return tags[0]
}

// IsSaving reports whether a tag change for the file is in flight.
func (m *Manager) IsSaving(fileID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saving[fileID]
}

// UpdateTag assigns the file to one slot, replacing whatever it held.
func (m *Manager) UpdateTag(ctx context.Context, fileID int64, tag models.FileTag) error {
	return m.setTags(ctx, fileID, []models.FileTag{tag})
}

// AddTag assigns the file to a slot. A file holds one slot at a time, so this
// replaces the current tag like UpdateTag.
func (m *Manager) AddTag(ctx context.Context, fileID int64, tag models.FileTag) error {
	return m.setTags(ctx, fileID, []models.FileTag{tag})
}

// RemoveTag moves the file out of the given slot into the sentinel "other
// documents" slot. Files are never left untagged.
func (m *Manager) RemoveTag(ctx context.Context, fileID int64, categoryID, itemID string) error {
	m.logger.Debug("untag file", "file_id", fileID, "category_id", categoryID, "item_id", itemID)
	return m.setTags(ctx, fileID, []models.FileTag{models.SentinelTag})
}

func (m *Manager) setTags(ctx context.Context, fileID int64, next []models.FileTag) error {
	m.setSaving(fileID, true)
	defer m.setSaving(fileID, false)

	get := func() []models.FileTag {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.tags[fileID]
	}
	set := func(tags []models.FileTag) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if tags == nil {
			delete(m.tags, fileID)
			return
		}
		m.tags[fileID] = tags
	}
	persist := func() error {
		return m.backend.SetFileTags(ctx, m.projectID, fileID, next)
	}

	if err := optimistic(get, set, next, persist); err != nil {
		m.logger.Warn("tag update rolled back", "file_id", fileID, "error", err)
		return fmt.Errorf("update tags of file %d: %w", fileID, err)
	}

	if err := m.Refresh(ctx); err != nil {
		m.logger.Warn("refresh after tagging failed", "file_id", fileID, "error", err)
	}
	return nil
}

func (m *Manager) setSaving(fileID int64, saving bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if saving {
		m.saving[fileID] = true
	} else {
		delete(m.saving, fileID)
	}
}

// localFiles is the part of the state a delete touches.
type localFiles struct {
	files []models.MaterialFile
	tags  map[int64][]models.FileTag
}

// DeleteFile removes a file locally and deletes it on the server. The file is
// restored locally when the server refuses.
func (m *Manager) DeleteFile(ctx context.Context, fileID int64) error {
	get := func() localFiles {
		m.mu.Lock()
		defer m.mu.Unlock()
		return localFiles{files: m.files, tags: m.tags}
	}
	set := func(s localFiles) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.files, m.tags = s.files, s.tags
	}

	prev := get()
	next := localFiles{
		files: slices.DeleteFunc(slices.Clone(prev.files), func(f models.MaterialFile) bool { return f.ID == fileID }),
		tags:  make(map[int64][]models.FileTag, len(prev.tags)),
	}
	for id, t := range prev.tags {
		if id != fileID {
			next.tags[id] = t
		}
	}

	persist := func() error {
		return m.backend.DeleteMaterialFile(ctx, m.projectID, fileID)
	}
	if err := optimistic(get, set, next, persist); err != nil {
		return fmt.Errorf("delete file %d: %w", fileID, err)
	}
	m.logger.Info("file deleted", "file_id", fileID)
	return nil
}

// DeleteOutcome is the result of deleting one file in DeleteAll.
type DeleteOutcome struct {
	File models.MaterialFile
	Err  error
}

// DeleteAll deletes every file one after another. There is no rollback: when
// some deletes fail the others stay deleted, and the returned error wraps
// ErrPartialDelete. Outcomes list every attempted file in order.
func (m *Manager) DeleteAll(ctx context.Context) ([]DeleteOutcome, error) {
	files := m.Files()
	outcomes := make([]DeleteOutcome, 0, len(files))
	failed := 0

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("delete all: %w", err)
		}
		err := m.DeleteFile(ctx, f.ID)
		if err != nil {
			failed++
			m.logger.Warn("delete failed", "file_id", f.ID, "file_name", f.FileName, "error", err)
		}
		outcomes = append(outcomes, DeleteOutcome{File: f, Err: err})
	}

	if failed > 0 {
		return outcomes, fmt.Errorf("%w: %d of %d failed", ErrPartialDelete, failed, len(files))
	}
	return outcomes, nil
}
