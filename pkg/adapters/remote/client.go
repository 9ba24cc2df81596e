// Package remote implements the blend store ports against a running
// DuneBlend server, degrading to read-only static hosting when the API
// endpoints are missing.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/introspection"
	"github.com/klauspost/compress/gzhttp"

	"github.com/anttttti/DuneBlend/pkg/core"
)

// API paths served by internal/server.
const (
	PathFeatures = "/api/server-features"
	PathBlends   = "/api/blends"
	PathUpload   = "/api/blend/upload"
	PathDelete   = "/api/blend/delete"
	PathIndex    = "/blends/index.json"
	PathBlendDir = "/blends/"
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Config holds the configuration for the remote store.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Store talks to a DuneBlend server over HTTP.
type Store struct {
	base   *url.URL
	client *http.Client
	logger *slog.Logger
	err    error
}

// Response is the JSON envelope of the mutating endpoints.
type Response struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadRequest is the body of POST /api/blend/upload.
type UploadRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// DeleteRequest is the body of POST /api/blend/delete.
type DeleteRequest struct {
	Filename string `json:"filename"`
}

// NewStore creates a remote store. Responses may be gzip-compressed.
func NewStore(config Config) *Store {
	s := &Store{logger: config.Logger, client: config.HTTPClient}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.client == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		s.client = &http.Client{
			Timeout:   timeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		}
	}

	base, err := url.Parse(strings.TrimSpace(config.BaseURL))
	switch {
	case err != nil:
		s.err = fmt.Errorf("invalid server url: %w", err)
	case base.Scheme != "http" && base.Scheme != "https":
		s.err = fmt.Errorf("invalid server url %q: scheme must be http or https", config.BaseURL)
	default:
		base.Path = strings.TrimSuffix(base.Path, "/")
		s.base = base
	}
	return s
}

// Initialize reports a malformed base URL. The server itself may be down;
// that surfaces on first use.
func (s *Store) Initialize(ctx context.Context) error {
	return s.err
}

func (s *Store) endpoint(path string) string {
	u := *s.base
	u.Path = s.base.Path + path
	return u.String()
}

func (s *Store) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if s.err != nil {
		return nil, s.err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-cache")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	s.logger.Debug("remote request", "method", method, "path", path)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// DetectFeatures asks the server what it supports. Anything but a valid
// answer means static hosting.
func (s *Store) DetectFeatures(ctx context.Context) core.Features {
	resp, err := s.do(ctx, http.MethodGet, PathFeatures, nil)
	if err != nil {
		s.logger.Debug("feature detection failed, assuming static hosting", "error", err)
		return core.StaticFeatures
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.StaticFeatures
	}
	var f core.Features
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return core.StaticFeatures
	}
	return f
}

// List returns the blends from the API, falling back to the static
// index.json listing. A server offering neither has no blends.
func (s *Store) List(ctx context.Context) ([]core.BlendInfo, error) {
	for _, path := range []string{PathBlends, PathIndex} {
		resp, err := s.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		list, ok, err := decodeList(resp)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if ok {
			return list, nil
		}
	}
	return []core.BlendInfo{}, nil
}

func decodeList(resp *http.Response) ([]core.BlendInfo, bool, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, nil
	}
	list := []core.BlendInfo{}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, false, err
	}
	return list, true, nil
}

// Get downloads the raw blend text from the static blends directory.
func (s *Store) Get(ctx context.Context, filename string) ([]byte, error) {
	if err := core.ValidateFilename(filename); err != nil {
		return nil, err
	}
	return s.fetch(ctx, PathBlendDir+url.PathEscape(filename))
}

// Fetch retrieves a static asset such as resources.json.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidFilename, name)
	}
	return s.fetch(ctx, "/"+strings.TrimPrefix(name, "/"))
}

func (s *Store) fetch(ctx context.Context, path string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, path)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Save uploads a blend. Servers without the upload endpoint report
// core.ErrUnavailable so the service falls back to a download.
func (s *Store) Save(ctx context.Context, filename string, data []byte) error {
	if err := core.ValidateFilename(filename); err != nil {
		return err
	}
	_, err := s.post(ctx, PathUpload, UploadRequest{Filename: filename, Content: string(data)})
	return err
}

// Delete removes a blend on the server.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := core.ValidateFilename(filename); err != nil {
		return err
	}
	_, err := s.post(ctx, PathDelete, DeleteRequest{Filename: filename})
	return err
}

func (s *Store) post(ctx context.Context, path string, body any) (Response, error) {
	resp, err := s.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	var out Response
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	// A JSON 404 comes from the API; a bare one means the endpoint is missing.
	if resp.StatusCode == http.StatusNotFound && decodeErr == nil && out.Error != "" {
		return out, fmt.Errorf("%w: %s", core.ErrNotFound, out.Error)
	}
	if sentinel := statusError(resp.StatusCode); sentinel != nil {
		if out.Error != "" {
			return out, fmt.Errorf("%w: %s", sentinel, out.Error)
		}
		return out, sentinel
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("POST %s: unexpected status %s", path, resp.Status)
	}
	if decodeErr != nil {
		return out, fmt.Errorf("decode %s: %w", path, decodeErr)
	}
	if !out.Success {
		return out, messageError(out.Error)
	}
	return out, nil
}

// statusError maps the statuses of the mutating endpoints to sentinels.
func statusError(code int) error {
	switch code {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		// Static hosts answer POSTs to unknown paths with one of these.
		return core.ErrUnavailable
	case http.StatusForbidden:
		return core.ErrProtected
	case http.StatusBadRequest:
		return core.ErrInvalidFilename
	case http.StatusConflict:
		return core.ErrReadOnly
	}
	return nil
}

// messageError maps the error messages of servers that always answer 200.
func messageError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "not found"):
		return fmt.Errorf("%w: %s", core.ErrNotFound, msg)
	case strings.Contains(lower, "base blend"), strings.Contains(lower, "protected"):
		return fmt.Errorf("%w: %s", core.ErrProtected, msg)
	case strings.Contains(lower, "invalid filename"):
		return fmt.Errorf("%w: %s", core.ErrInvalidFilename, msg)
	case msg == "":
		return errors.New("server reported failure")
	}
	return errors.New(msg)
}

// StoreState exposes internal state for observability.
type StoreState struct {
	BaseURL string `json:"base_url"`
	Valid   bool   `json:"valid"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	st := StoreState{Valid: s.err == nil}
	if s.base != nil {
		st.BaseURL = s.base.String()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "remote-store"
}

var (
	_ core.Store                   = (*Store)(nil)
	_ core.Fetcher                 = (*Store)(nil)
	_ core.FeatureDetector         = (*Store)(nil)
	_ introspection.Introspectable = (*Store)(nil)
	_ introspection.Component      = (*Store)(nil)
)
