// Package client talks to the annotation backend over HTTP. It implements
// the frame, annotation and video collaborator contracts; every call needs
// the bearer token carried by the Client, and any non-success response is
// surfaced as a domain.FetchError with the server's detail message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lewtec/polypmark/internal/domain"
)

// Client is a thin wrapper over the backend's REST surface.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	log     *slog.Logger
}

// New returns a client for the backend at baseURL authenticating with
// token.
func New(baseURL, token string, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// SetHTTPClient swaps the underlying http.Client, for tests and custom
// transports.
func (c *Client) SetHTTPClient(h *http.Client) { c.httpc = h }

// ListFrames returns the ordered frame descriptors of a video sampled at
// rate frames per second.
func (c *Client) ListFrames(ctx context.Context, videoID int64, rate int) ([]domain.FrameInfo, error) {
	var frames []domain.FrameInfo
	path := fmt.Sprintf("/videos/%d/get_frames_path/rate/%d", videoID, rate)
	if err := c.getJSON(ctx, path, &frames); err != nil {
		return nil, err
	}
	return frames, nil
}

// FetchFrameImage returns the raw bytes of one frame image.
func (c *Client) FetchFrameImage(ctx context.Context, videoID int64, frameName string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/videos/%d/get_frame/%s", videoID, frameName), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fetchError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("while reading frame image: %w", err)}
	}
	return data, nil
}

// FetchAnnotations returns the records stored for a frame. The backend
// answers 404 for a frame with no annotations; that is an empty frame, not
// an error.
func (c *Client) FetchAnnotations(ctx context.Context, frameID int64) ([]domain.AnnotationRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/annotations/video/%d", frameID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return []domain.AnnotationRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fetchError(resp)
	}
	var recs []domain.AnnotationRecord
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("while decoding annotations: %w", err)}
	}
	return recs, nil
}

// CreateOrUpdate upserts a record; the backend keys on (frame, polyp).
func (c *Client) CreateOrUpdate(ctx context.Context, rec domain.AnnotationRecord) (domain.AnnotationRecord, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return domain.AnnotationRecord{}, fmt.Errorf("while encoding annotation: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, "/annotations/", bytes.NewReader(body))
	if err != nil {
		return domain.AnnotationRecord{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return domain.AnnotationRecord{}, fetchError(resp)
	}
	var saved domain.AnnotationRecord
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return domain.AnnotationRecord{}, &domain.FetchError{Err: fmt.Errorf("while decoding saved annotation: %w", err)}
	}
	return saved, nil
}

// Delete removes the record for a polyp on a frame.
func (c *Client) Delete(ctx context.Context, frameID, polypID int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/annotations/%d/%d", frameID, polypID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fetchError(resp)
	}
	return nil
}

// Metadata returns the title and duration of a video.
func (c *Client) Metadata(ctx context.Context, videoID int64) (domain.VideoMeta, error) {
	var meta domain.VideoMeta
	if err := c.getJSON(ctx, fmt.Sprintf("/videos/%d/metadata", videoID), &meta); err != nil {
		return domain.VideoMeta{}, err
	}
	return meta, nil
}

// CountPolyps returns the number of distinct polyp identities on a video.
func (c *Client) CountPolyps(ctx context.Context, videoID int64) (int64, error) {
	var out struct {
		VideoID int64 `json:"video_id"`
		Count   int64 `json:"distinct_polyp_count"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/annotations/total_amount_polyps/%d", videoID), &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fetchError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.FetchError{Err: fmt.Errorf("while decoding %s: %w", path, err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	if c.token == "" {
		return nil, domain.ErrAuthRequired
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("while building request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}
	return resp, nil
}

// fetchError drains the response and extracts the backend's detail message,
// the shape being {"detail": "..."}.
func fetchError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &payload)
	return &domain.FetchError{Status: resp.StatusCode, Detail: payload.Detail}
}

// Interface checks: the client satisfies every collaborator contract.
var (
	_ domain.FrameService      = (*Client)(nil)
	_ domain.AnnotationService = (*Client)(nil)
	_ domain.VideoService      = (*Client)(nil)
)
