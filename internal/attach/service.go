// Package attach stores transaction attachments in a Telegram bot chat and
// serves them back through a stable proxy URL.
package attach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"
)

// Service is a thin upload/download proxy around the bot API.
type Service struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// Uploaded describes a stored attachment.
type Uploaded struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	URL      string `json:"url"`
}

func NewService(botToken, chatID string) *Service {
	return &Service{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

type botResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		Document *documentInfo `json:"document"`
		FilePath string        `json:"file_path"`
	} `json:"result"`
	Description string `json:"description"`
}

type documentInfo struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

// Upload sends the file to the bot chat and returns its proxy URL.
func (s *Service) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*Uploaded, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := form.WriteField("chat_id", s.chatID); err != nil {
				return err
			}

			part, err := form.CreateFormFile("document", filename)
			if err != nil {
				return err
			}

			if _, err := io.Copy(part, r); err != nil {
				return err
			}

			return form.Close()
		}()

		pw.CloseWithError(err)
	}()

	url := fmt.Sprintf("%s/bot%s/sendDocument", s.baseURL, s.botToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}

	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading attachment: %w", err)
	}
	defer resp.Body.Close()

	var body botResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}

	if !body.OK || body.Result.Document == nil || body.Result.Document.FileID == "" {
		return nil, fmt.Errorf("bot upload rejected: %s", body.Description)
	}

	doc := body.Result.Document

	uploaded := &Uploaded{
		FileID:   doc.FileID,
		FileName: doc.FileName,
		MimeType: doc.MimeType,
		URL:      "/api/v1/files/" + doc.FileID,
	}

	if uploaded.FileName == "" {
		uploaded.FileName = filename
	}

	if uploaded.MimeType == "" {
		uploaded.MimeType = contentType
	}

	return uploaded, nil
}

// Download resolves a file id back to its content. The caller owns the
// returned reader.
func (s *Service) Download(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	infoURL := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", s.baseURL, s.botToken, fileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building file info request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("resolving attachment: %w", err)
	}
	defer resp.Body.Close()

	var body botResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", fmt.Errorf("decoding file info response: %w", err)
	}

	if !body.OK || body.Result.FilePath == "" {
		return nil, "", errors.New("attachment not found")
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", s.baseURL, s.botToken, body.Result.FilePath)

	fileReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building download request: %w", err)
	}

	fileResp, err := s.client.Do(fileReq)
	if err != nil {
		return nil, "", fmt.Errorf("downloading attachment: %w", err)
	}

	if fileResp.StatusCode != http.StatusOK {
		fileResp.Body.Close()
		return nil, "", fmt.Errorf("attachment download returned status %d", fileResp.StatusCode)
	}

	return fileResp.Body, mimeForPath(body.Result.FilePath), nil
}

func mimeForPath(p string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
