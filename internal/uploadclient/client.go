// Package uploadclient drives the upload-then-process protocol against the
// API: request an upload target, put the bytes, trigger processing, and poll
// until the document reaches a terminal status.
package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docvault-backend/internal/documents"
)

const maxFileSize = 10 * 1024 * 1024

var allowedTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum size")
	// ErrUploadTargetExpired means the presigned URL was rejected; the caller
	// needs a fresh target, not a retry of the same one.
	ErrUploadTargetExpired = errors.New("upload target expired")
	ErrWaitTimeout         = errors.New("timed out waiting for terminal status")
)

// Progress milestones reported while the protocol advances.
const (
	ProgressTargetAcquired = 25
	ProgressUploaded       = 75
	ProgressProcessing     = 90
	ProgressDone           = 100
)

// Client talks to the document API. Identity is carried either as a session
// token or, against a dev server, as a plain user ID header.
type Client struct {
	BaseURL      string
	SessionToken string
	MockUserID   string
	HTTPClient   *http.Client

	// OnProgress, when set, receives coarse percentage milestones.
	OnProgress func(percent int)

	// PollInterval is the initial poll delay; it grows by half each tick up
	// to PollMaxInterval. MaxWait bounds the whole wait. Zero values take
	// the defaults.
	PollInterval    time.Duration
	PollMaxInterval time.Duration
	MaxWait         time.Duration
}

const (
	defaultPollInterval    = 2 * time.Second
	defaultPollMaxInterval = 10 * time.Second
	defaultMaxWait         = 5 * time.Minute
)

// FileInfo describes the file being uploaded.
type FileInfo struct {
	Name         string
	ContentType  string
	Size         int64
	DocumentType string
}

// ValidateFile checks the allow-list and size bound before any network call.
func ValidateFile(info FileInfo) error {
	if _, ok := allowedTypes[info.ContentType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, info.ContentType)
	}
	if info.Size > maxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size)
	}
	return nil
}

// RequestUploadTarget asks the API for a document record and presigned URL.
func (c *Client) RequestUploadTarget(ctx context.Context, info FileInfo) (documents.UploadTarget, error) {
	payload := map[string]any{
		"fileName":     info.Name,
		"fileType":     info.ContentType,
		"fileSize":     info.Size,
		"documentType": info.DocumentType,
	}
	var target documents.UploadTarget
	if err := c.postJSON(ctx, "/documents/upload-url", payload, &target); err != nil {
		return documents.UploadTarget{}, err
	}
	c.report(ProgressTargetAcquired)
	return target, nil
}

// Upload puts the file bytes to the presigned URL. A 403 is reported as an
// expired target so the caller can request a new one.
func (c *Client) Upload(ctx context.Context, uploadURL, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return ErrUploadTargetExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}
	c.report(ProgressUploaded)
	return nil
}

// TriggerProcessing starts extraction for the document.
func (c *Client) TriggerProcessing(ctx context.Context, documentID string) error {
	if err := c.postJSON(ctx, "/documents/"+documentID+"/process", nil, nil); err != nil {
		return err
	}
	c.report(ProgressProcessing)
	return nil
}

// WaitForCompletion polls the document until COMPLETED or FAILED, backing
// off between polls. It returns the terminal document, or ErrWaitTimeout
// when MaxWait elapses first. Cancelling the context stops polling.
func (c *Client) WaitForCompletion(ctx context.Context, documentID string) (documents.Document, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxInterval := c.PollMaxInterval
	if maxInterval <= 0 {
		maxInterval = defaultPollMaxInterval
	}
	maxWait := c.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	deadline := time.Now().Add(maxWait)
	for {
		doc, err := c.getDocument(ctx, documentID)
		if err != nil {
			return documents.Document{}, err
		}
		if doc.Status.Terminal() {
			if doc.Status == documents.StatusCompleted {
				c.report(ProgressDone)
			}
			return doc, nil
		}
		if doc.Status == documents.StatusProcessing {
			c.report(ProgressProcessing)
		}

		if time.Now().Add(interval).After(deadline) {
			return documents.Document{}, ErrWaitTimeout
		}
		select {
		case <-ctx.Done():
			return documents.Document{}, ctx.Err()
		case <-time.After(interval):
		}
		interval = interval * 3 / 2
		if interval > maxInterval {
			interval = maxInterval
		}
	}
}

// UploadAndProcess runs the whole protocol for one file.
func (c *Client) UploadAndProcess(ctx context.Context, info FileInfo, body io.Reader) (documents.Document, error) {
	if err := ValidateFile(info); err != nil {
		return documents.Document{}, err
	}

	target, err := c.RequestUploadTarget(ctx, info)
	if err != nil {
		return documents.Document{}, err
	}
	if err := c.Upload(ctx, target.UploadURL, info.ContentType, body); err != nil {
		return documents.Document{}, err
	}
	if err := c.TriggerProcessing(ctx, target.DocumentID); err != nil {
		return documents.Document{}, err
	}
	return c.WaitForCompletion(ctx, target.DocumentID)
}

func (c *Client) getDocument(ctx context.Context, documentID string) (documents.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/documents/"+documentID, nil)
	if err != nil {
		return documents.Document{}, err
	}
	c.setIdentity(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return documents.Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return documents.Document{}, apiError(resp)
	}
	var doc documents.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return documents.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setIdentity(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setIdentity(req *http.Request) {
	if c.SessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.SessionToken)
	}
	if c.MockUserID != "" {
		req.Header.Set("X-User-Id", c.MockUserID)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) report(percent int) {
	if c.OnProgress != nil {
		c.OnProgress(percent)
	}
}

func apiError(resp *http.Response) error {
	var parsed struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("api error %d (%s): %s", resp.StatusCode, parsed.Error.Code, parsed.Error.Message)
	}
	return fmt.Errorf("api error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
