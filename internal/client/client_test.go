package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/visadesk/internal/metrics"
	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Options{BaseURL: server.URL, Token: "tok-123"}), server
}

func TestCallSetsHeaders(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": nil})
	})

	res := c.Call(context.Background(), "/api/projects", CallOptions{
		Headers: http.Header{"X-Custom": []string{"yes"}},
	})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.Equal(t, "yes", got.Get("X-Custom"))
	assert.Len(t, got.Get(RequestIDHeader), 36, "request id should be a uuid")
}

func TestCallCallerHeadersOverrideDefaults(t *testing.T) {
	var auth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	c.Call(context.Background(), "/x", CallOptions{
		Headers: http.Header{"Authorization": []string{"Bearer other"}},
	})
	assert.Equal(t, "Bearer other", auth)
}

func TestCallNormalizesFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name:     "application failure",
			status:   http.StatusOK,
			body:     `{"success": false, "error": "项目不存在"}`,
			wantKind: KindApplication,
			wantMsg:  "项目不存在",
		},
		{
			name:     "application failure with message field",
			status:   http.StatusOK,
			body:     `{"success": false, "message": "quota exceeded"}`,
			wantKind: KindApplication,
			wantMsg:  "quota exceeded",
		},
		{
			name:     "application failure without message",
			status:   http.StatusOK,
			body:     `{"success": false}`,
			wantKind: KindApplication,
			wantMsg:  "request was not successful",
		},
		{
			name:     "http failure with envelope",
			status:   http.StatusInternalServerError,
			body:     `{"success": false, "error": "boom"}`,
			wantKind: KindHTTP,
			wantMsg:  "HTTP 500: boom",
		},
		{
			name:     "http failure with plain body",
			status:   http.StatusBadGateway,
			body:     `upstream down`,
			wantKind: KindHTTP,
			wantMsg:  "HTTP 502: upstream down",
		},
		{
			name:     "http failure with empty body",
			status:   http.StatusNotFound,
			body:     ``,
			wantKind: KindHTTP,
			wantMsg:  "HTTP 404: Not Found",
		},
		{
			name:     "missing success field",
			status:   http.StatusOK,
			body:     `{"data": []}`,
			wantKind: KindApplication,
			wantMsg:  "malformed response",
		},
		{
			name:     "not json",
			status:   http.StatusOK,
			body:     `<html></html>`,
			wantKind: KindApplication,
			wantMsg:  "malformed response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			res := c.Call(context.Background(), "/api/anything", CallOptions{})

			assert.False(t, res.Success)
			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Contains(t, res.Error, tt.wantMsg)
			assert.Error(t, res.Err())
		})
	}
}

func TestCallTransportFailure(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})

	res := c.Call(context.Background(), "/api/projects", CallOptions{})

	assert.False(t, res.Success)
	assert.Equal(t, KindTransport, res.Kind)
	assert.Contains(t, res.Error, "request failed")
}

func TestAPIErrorSentinels(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "token expired"})
	})

	_, err := c.ListProjects(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrNotFound))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, KindHTTP, apiErr.Kind)
	assert.Equal(t, "HTTP 401: token expired", err.Error())
}

func TestTypedHelpersDecodeData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/projects":
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []map[string]any{
				{"id": "p1", "client_name": "张三", "visa_type": "O-1", "status": "collecting"},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/projects":
			var in models.ProjectInput
			json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"id": "p2", "client_name": in.ClientName, "visa_type": in.VisaType, "status": "created",
			}})
		case r.Method == http.MethodPatch && r.URL.Path == "/api/admin/users":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"id": body["userId"], "role": body["role"],
			}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "no route"})
		}
	})
	ctx := context.Background()

	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "张三", projects[0].ClientName)
	assert.Equal(t, models.ProjectCollecting, projects[0].Status)

	created, err := c.CreateProject(ctx, models.ProjectInput{ClientName: "李四", VisaType: "EB-1A"})
	require.NoError(t, err)
	assert.Equal(t, "p2", created.ID)
	assert.Equal(t, "EB-1A", created.VisaType)

	user, err := c.SetUserRole(ctx, "u7", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "u7", user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = c.GetProject(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCallRecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	defer server.Close()

	c := New(Options{BaseURL: server.URL, Collector: collector})
	_, err := c.ListBullets(context.Background())
	require.NoError(t, err)

	snap := collector.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, "ListBullets", snap.Operations[0].Operation)
}

func TestMaterialCollectionNormalizes(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p1/material-collection", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"categories": []map[string]any{{
				"id": "folder_1", "name": "身份材料",
				"items": []map[string]any{
					{"id": "passport", "status": "pending", "files": []map[string]any{{"id": 11, "file_name": "护照.pdf"}}},
				},
			}},
			"files":     []map[string]any{{"id": 11, "file_name": "护照.pdf"}},
			"file_tags": map[string]any{"11": []map[string]string{{"category_id": "folder_1", "item_id": "passport"}}},
		}})
	})

	coll, err := c.MaterialCollection(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ItemCollected, coll.Categories[0].Items[0].Status)
	assert.Equal(t, []models.FileTag{{CategoryID: "folder_1", ItemID: "passport"}}, coll.FileTags[11])
}

func TestUploadMaterialSendsMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p1/material-collection/upload", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "folder_1", r.FormValue("category_id"))
		assert.Equal(t, "resume", r.FormValue("item_id"))
		assert.Equal(t, "latest", r.FormValue("description"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "简历.pdf", hdr.Filename)
		assert.Equal(t, "pdf-bytes", string(content))

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": 42, "file_name": hdr.Filename}})
	})

	file, err := c.UploadMaterial(context.Background(), "p1", "简历.pdf", strings.NewReader("pdf-bytes"),
		UploadMeta{CategoryID: "folder_1", ItemID: "resume", Description: "latest"})

	require.NoError(t, err)
	assert.Equal(t, int64(42), file.ID)
}

func TestUploadZipDecodesResult(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p1/material-collection/upload-zip", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"total_files": 2, "success_count": 1, "unrecognized_count": 1,
			"files": []map[string]any{
				{"filename": "护照.pdf", "status": "success", "category_id": "folder_1", "item_id": "passport"},
				{"filename": "misc.bin", "status": "unrecognized"},
			},
		}})
	})

	res, err := c.UploadZip(context.Background(), "p1", "all.zip", strings.NewReader("PK"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, models.ZipFileUnrecognized, res.Files[1].Status)
}

func TestSetFileTagsSendsFullArray(t *testing.T) {
	var body map[string][]models.FileTag
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/projects/p1/materials/7/tags", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})

	err := c.SetFileTags(context.Background(), "p1", 7, []models.FileTag{models.SentinelTag})
	require.NoError(t, err)
	assert.Equal(t, []models.FileTag{models.SentinelTag}, body["tags"])
}

func TestFilenameFromDisposition(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", "fallback.zip"},
		{"rfc5987", `attachment; filename*=UTF-8''%E6%96%87%E4%B9%A6.docx`, "文书.docx"},
		{"rfc5987 wins over legacy", `attachment; filename="legacy.docx"; filename*=UTF-8''%E6%96%B0.docx`, "新.docx"},
		{"legacy quoted", `attachment; filename="framework.xmind"`, "framework.xmind"},
		{"legacy token", `attachment; filename=report.zip`, "report.zip"},
		{"legacy percent-encoded", `attachment; filename="%E6%8A%A5%E5%91%8A.zip"`, "报告.zip"},
		{"directory stripped", `attachment; filename="../../etc/passwd"`, "passwd"},
		{"no filename", `inline`, "fallback.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameFromDisposition(tt.header, "fallback.zip"))
		})
	}
}

func TestExportBinary(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p1/export/zip", r.URL.Path)
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename*=UTF-8''%E6%9D%90%E6%96%99.zip`)
		io.WriteString(w, "PK-zip-bytes")
	})

	f, err := c.Export(context.Background(), "p1", ExportZip)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "材料.zip", f.Filename)
	assert.Equal(t, "application/zip", f.ContentType)
	data, err := io.ReadAll(f.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK-zip-bytes", string(data))
}

func TestExportMarkdown(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
			"content": "# 框架\n\n## 背景\n", "filename": "framework.md",
		}})
	})

	f, err := c.Export(context.Background(), "p1", ExportMarkdown)
	require.NoError(t, err)
	assert.Nil(t, f.Body)
	assert.Equal(t, "framework.md", f.Filename)
	assert.Equal(t, "# 框架\n\n## 背景\n", f.Markdown)
}

func TestExportFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]any{"success": false, "error": "framework not built"})
	})

	_, err := c.Export(context.Background(), "p1", ExportDocx)
	require.Error(t, err)
	assert.Equal(t, "HTTP 409: framework not built", err.Error())
}

func TestStreamFrameworkLogs(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p1/framework-logs/stream", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		conn.WriteJSON(streamMessage{Type: streamEntry, Entry: &models.LogEntry{ID: 1, ActionLabel: "提取要点"}})
		conn.WriteJSON(streamMessage{Type: streamPing})
		conn.WriteJSON(streamMessage{Type: streamEntry, Entry: &models.LogEntry{ID: 2, ActionLabel: "生成框架"}})
		conn.WriteJSON(streamMessage{Type: streamDone})
	})

	var got []int64
	err := c.StreamFrameworkLogs(context.Background(), "p1", func(e models.LogEntry) error {
		got = append(got, e.ID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, got)
}

func TestStreamFrameworkLogsServerError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		conn.WriteJSON(streamMessage{Type: streamError, Error: "job crashed"})
	})

	err := c.StreamFrameworkLogs(context.Background(), "p1", func(models.LogEntry) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job crashed")
}
