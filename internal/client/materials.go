package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// UploadMeta carries the form fields sent with a single-file upload.
type UploadMeta struct {
	CategoryID  string
	ItemID      string
	Description string
}

// MaterialCollection returns the categorization payload of a project with item
// statuses derived from their files.
func (c *Client) MaterialCollection(ctx context.Context, projectID string) (*models.MaterialCollection, error) {
	var coll models.MaterialCollection
	path := "/api/projects/" + pathID(projectID) + "/material-collection"
	if err := c.do(ctx, "MaterialCollection", http.MethodGet, path, nil, &coll); err != nil {
		return nil, err
	}
	coll.Normalize()
	return &coll, nil
}

// UploadMaterial uploads one file into a (category, item) slot.
func (c *Client) UploadMaterial(ctx context.Context, projectID, fileName string, r io.Reader, meta UploadMeta) (*models.MaterialFile, error) {
	fields := map[string]string{
		"category_id": meta.CategoryID,
		"item_id":     meta.ItemID,
		"description": meta.Description,
	}
	path := "/api/projects/" + pathID(projectID) + "/material-collection/upload"
	res := c.Upload(ctx, "UploadMaterial", path, fields, fileName, r)
	if err := res.Err(); err != nil {
		return nil, err
	}
	var file models.MaterialFile
	if err := decodeData(res, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// UploadZip sends an archive to the expand-and-classify endpoint.
func (c *Client) UploadZip(ctx context.Context, projectID, fileName string, r io.Reader) (*models.ZipUploadResult, error) {
	path := "/api/projects/" + pathID(projectID) + "/material-collection/upload-zip"
	res := c.Upload(ctx, "UploadZip", path, nil, fileName, r)
	if err := res.Err(); err != nil {
		return nil, err
	}
	var result models.ZipUploadResult
	if err := decodeData(res, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetFileTags replaces the full tag array of a file.
func (c *Client) SetFileTags(ctx context.Context, projectID string, fileID int64, tags []models.FileTag) error {
	path := fmt.Sprintf("/api/projects/%s/materials/%d/tags", pathID(projectID), fileID)
	body := map[string][]models.FileTag{"tags": tags}
	return c.do(ctx, "SetFileTags", http.MethodPut, path, body, nil)
}

// DeleteMaterialFile deletes one uploaded file.
func (c *Client) DeleteMaterialFile(ctx context.Context, projectID string, fileID int64) error {
	path := "/api/projects/" + pathID(projectID) + "/material-collection/files/" + strconv.FormatInt(fileID, 10)
	return c.do(ctx, "DeleteMaterialFile", http.MethodDelete, path, nil, nil)
}

// Upload posts a multipart/form-data body with one file part named "file" and
// the given text fields. The body is streamed, not buffered.
func (c *Client) Upload(ctx context.Context, op, path string, fields map[string]string, fileName string, r io.Reader) Result {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, fileName, r))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), pr)
	if err != nil {
		pr.Close()
		return Result{Kind: KindTransport, Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	c.decorate(req, nil)

	res := c.send(req, opLabel(op, http.MethodPost, path))
	// Unblock the writer goroutine if the request ended before the body was read.
	pr.Close()
	return res
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, fileName string, r io.Reader) error {
	for key, val := range fields {
		if val == "" {
			continue
		}
		if err := mw.WriteField(key, val); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return mw.Close()
}
