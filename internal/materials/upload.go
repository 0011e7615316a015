package materials

import (
	"context"
	"fmt"
	"slices"

	"github.com/raphaelgruber/visadesk/internal/client"
	"github.com/raphaelgruber/visadesk/internal/models"
)

// UploadStatus is the state of one file in the progress list.
type UploadStatus string

const (
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// UploadProgress is one row of the upload progress list, keyed by file name.
type UploadProgress struct {
	Name    string
	Status  UploadStatus
	Tag     models.FileTag // slot the file was uploaded into; empty for archives
	Archive *models.ZipUploadResult
	Err     error
}

// Uploads returns the current progress list.
func (m *Manager) Uploads() []UploadProgress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.uploads)
}

// ClearUploads empties the progress list.
func (m *Manager) ClearUploads() {
	m.mu.Lock()
	m.uploads = nil
	m.mu.Unlock()
}

// track inserts or replaces the row for p.Name and notifies OnProgress.
func (m *Manager) track(p UploadProgress) {
	m.mu.Lock()
	idx := slices.IndexFunc(m.uploads, func(u UploadProgress) bool { return u.Name == p.Name })
	if idx >= 0 {
		m.uploads[idx] = p
	} else {
		m.uploads = append(m.uploads, p)
	}
	snapshot := slices.Clone(m.uploads)
	m.mu.Unlock()

	if m.OnProgress != nil {
		m.OnProgress(snapshot)
	}
}

// Upload uploads sources one at a time into the slot given by meta. The
// returned list holds one row per source; the error only reports whether any
// upload failed.
func (m *Manager) Upload(ctx context.Context, sources []Source, meta client.UploadMeta) ([]UploadProgress, error) {
	results := make([]UploadProgress, 0, len(sources))
	for _, src := range sources {
		tag := models.FileTag{CategoryID: meta.CategoryID, ItemID: meta.ItemID}
		results = append(results, m.uploadOne(ctx, src, tag, meta.Description))
	}
	return results, m.finishUploads(ctx, results)
}

// UploadBatch uploads a mixed selection. Archives go to the expand-and-classify
// endpoint once each; every other file is classified by name and uploaded
// into the guessed slot, or the sentinel slot when no rule matches.
func (m *Manager) UploadBatch(ctx context.Context, sources []Source) ([]UploadProgress, error) {
	results := make([]UploadProgress, 0, len(sources))
	for _, src := range sources {
		if IsArchive(src.Name()) {
			results = append(results, m.uploadArchive(ctx, src))
			continue
		}
		results = append(results, m.uploadOne(ctx, src, TagFor(src.Name()), ""))
	}
	return results, m.finishUploads(ctx, results)
}

func (m *Manager) uploadOne(ctx context.Context, src Source, tag models.FileTag, description string) UploadProgress {
	name := src.Name()
	p := UploadProgress{Name: name, Status: UploadUploading, Tag: tag}
	m.track(p)

	err := func() error {
		r, err := src.Open(ctx)
		if err != nil {
			return err
		}
		defer r.Close()
		meta := client.UploadMeta{CategoryID: tag.CategoryID, ItemID: tag.ItemID, Description: description}
		_, err = m.backend.UploadMaterial(ctx, m.projectID, name, r, meta)
		return err
	}()

	if err != nil {
		m.logger.Warn("upload failed", "file_name", name, "error", err)
		p.Status, p.Err = UploadError, err
	} else {
		m.logger.Info("file uploaded", "file_name", name, "tag", tag.String())
		p.Status = UploadSuccess
	}
	m.track(p)
	return p
}

func (m *Manager) uploadArchive(ctx context.Context, src Source) UploadProgress {
	name := src.Name()
	p := UploadProgress{Name: name, Status: UploadUploading}
	m.track(p)

	result, err := func() (*models.ZipUploadResult, error) {
		r, err := src.Open(ctx)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return m.backend.UploadZip(ctx, m.projectID, name, r)
	}()

	if err != nil {
		m.logger.Warn("archive upload failed", "file_name", name, "error", err)
		p.Status, p.Err = UploadError, err
	} else {
		m.logger.Info("archive expanded",
			"file_name", name,
			"total", result.TotalFiles,
			"success", result.SuccessCount,
			"unrecognized", result.UnrecognizedCount)
		p.Status, p.Archive = UploadSuccess, result
	}
	m.track(p)
	return p
}

// finishUploads re-fetches state when anything landed and summarizes failures.
func (m *Manager) finishUploads(ctx context.Context, results []UploadProgress) error {
	failed := 0
	for _, r := range results {
		if r.Status == UploadError {
			failed++
		}
	}
	if failed < len(results) {
		if err := m.Refresh(ctx); err != nil {
			m.logger.Warn("refresh after upload failed", "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}
