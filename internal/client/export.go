package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// Export formats supported by the backend.
const (
	ExportMarkdown = "markdown"
	ExportXMind    = "xmind"
	ExportDocx     = "docx"
	ExportZip      = "zip"
)

// ExportFile is a downloaded export. Markdown exports arrive as JSON and fill
// Markdown; binary exports fill Body, which the caller must close.
type ExportFile struct {
	Filename    string
	ContentType string
	Markdown    string
	Body        io.ReadCloser
}

// Close releases the body of a binary export.
func (f *ExportFile) Close() error {
	if f.Body == nil {
		return nil
	}
	return f.Body.Close()
}

// Export downloads a project export in the given format.
func (c *Client) Export(ctx context.Context, projectID, format string) (*ExportFile, error) {
	path := "/api/projects/" + pathID(projectID) + "/export/" + pathID(format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path, nil), nil)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Message: fmt.Sprintf("create request: %v", err)}
	}
	c.decorate(req, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Message: fmt.Sprintf("request failed: %v", err)}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	fallback := "export-" + projectID + defaultExtension(format)

	// JSON bodies are either markdown exports or error envelopes.
	if mediaType == "application/json" || resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &APIError{Kind: KindTransport, Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)}
		}
		res := normalize(resp.StatusCode, raw)
		if err := res.Err(); err != nil {
			return nil, err
		}
		var payload struct {
			Content  string `json:"content"`
			Filename string `json:"filename"`
		}
		if err := json.Unmarshal(res.Data, &payload); err != nil {
			return nil, &APIError{Kind: KindApplication, Status: res.Status, Message: fmt.Sprintf("decode export: %v", err)}
		}
		name := payload.Filename
		if name == "" {
			name = FilenameFromDisposition(resp.Header.Get("Content-Disposition"), fallback)
		}
		return &ExportFile{Filename: filepath.Base(name), ContentType: mediaType, Markdown: payload.Content}, nil
	}

	return &ExportFile{
		Filename:    FilenameFromDisposition(resp.Header.Get("Content-Disposition"), fallback),
		ContentType: mediaType,
		Body:        resp.Body,
	}, nil
}

var (
	extendedFilename = regexp.MustCompile(`(?i)filename\*\s*=\s*([^']*)'[^']*'([^;]+)`)
	legacyFilename   = regexp.MustCompile(`(?i)(?:^|;)\s*filename\s*=\s*(?:"([^"]*)"|([^;]+))`)
)

// FilenameFromDisposition extracts the download name from a Content-Disposition
// header. The RFC 5987 filename* parameter (charset, empty language, then the
// percent-encoded name) wins over the legacy filename= parameter; fallback is
// used when neither yields a name. Directory components are always stripped.
func FilenameFromDisposition(header, fallback string) string {
	if header == "" {
		return fallback
	}

	if m := extendedFilename.FindStringSubmatch(header); m != nil {
		if name, err := url.PathUnescape(strings.Trim(strings.TrimSpace(m[2]), `"`)); err == nil && name != "" {
			return safeBase(name, fallback)
		}
	}

	if _, params, err := mime.ParseMediaType(header); err == nil && params["filename"] != "" {
		return safeBase(unescapeLegacy(params["filename"]), fallback)
	}

	if m := legacyFilename.FindStringSubmatch(header); m != nil {
		name := m[1]
		if name == "" {
			name = strings.TrimSpace(m[2])
		}
		if name != "" {
			return safeBase(unescapeLegacy(name), fallback)
		}
	}

	return fallback
}

// unescapeLegacy decodes percent-encoded legacy names some servers send.
func unescapeLegacy(name string) string {
	if !strings.Contains(name, "%") {
		return name
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

func safeBase(name, fallback string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return fallback
	}
	return base
}

func defaultExtension(format string) string {
	switch format {
	case ExportMarkdown:
		return ".md"
	case ExportXMind:
		return ".xmind"
	case ExportDocx:
		return ".docx"
	case ExportZip:
		return ".zip"
	}
	return ""
}
