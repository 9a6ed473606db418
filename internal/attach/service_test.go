package attach

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewService("bot-token", "chat-1")
	svc.baseURL = srv.URL

	return svc
}

func TestService_Upload(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botbot-token/sendDocument", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "chat-1", r.FormValue("chat_id"))

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "receipt bytes", string(content))
		assert.Equal(t, "receipt.png", header.Filename)

		fmt.Fprint(w, `{"ok":true,"result":{"document":{"file_id":"f123","file_name":"receipt.png","mime_type":"image/png"}}}`)
	}))

	uploaded, err := svc.Upload(context.Background(), "receipt.png", "image/png",
		strings.NewReader("receipt bytes"))
	require.NoError(t, err)

	assert.Equal(t, "f123", uploaded.FileID)
	assert.Equal(t, "/api/v1/files/f123", uploaded.URL)
	assert.Equal(t, "image/png", uploaded.MimeType)
}

func TestService_UploadRejected(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"chat not found"}`)
	}))

	_, err := svc.Upload(context.Background(), "receipt.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestService_Download(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botbot-token/getFile":
			assert.Equal(t, "f123", r.URL.Query().Get("file_id"))
			fmt.Fprint(w, `{"ok":true,"result":{"file_path":"documents/receipt.pdf"}}`)
		case "/file/botbot-token/documents/receipt.pdf":
			fmt.Fprint(w, "pdf bytes")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	body, contentType, err := svc.Download(context.Background(), "f123")
	require.NoError(t, err)
	defer body.Close()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(content))
	assert.Equal(t, "application/pdf", contentType)
}

func TestService_DownloadUnknownFile(t *testing.T) {
	svc := testService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"ok":false,"description":"file not found"}`)
	}))

	_, _, err := svc.Download(context.Background(), "nope")
	assert.Error(t, err)
}

func TestMimeForPath(t *testing.T) {
	tests := map[string]string{
		"documents/a.pdf":  "application/pdf",
		"photos/b.JPG":     "image/jpeg",
		"photos/c.png":     "image/png",
		"photos/d.webp":    "image/webp",
		"animations/e.gif": "image/gif",
		"documents/f.zip":  "application/octet-stream",
		"noext":            "application/octet-stream",
	}

	for p, want := range tests {
		assert.Equal(t, want, mimeForPath(p), p)
	}
}
