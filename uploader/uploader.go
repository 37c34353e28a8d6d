package uploader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"timetable-ics/config"
)

// ErrUpload is returned when GitHub rejects the upload.
var ErrUpload = errors.New("github upload failed")

const defaultAPIURL = "https://api.github.com"

type GitHubUploadRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type contentResponse struct {
	SHA string `json:"sha"`
}

// Uploader publishes files to a GitHub repository through the contents API.
type Uploader struct {
	client *http.Client
	apiURL string
	cfg    config.GithubConfig
	logger *slog.Logger
}

type Option func(*Uploader)

func WithHTTPClient(client *http.Client) Option {
	return func(u *Uploader) {
		if client != nil {
			u.client = client
		}
	}
}

// WithAPIURL points the uploader at another GitHub API root, such as a
// GitHub Enterprise server.
func WithAPIURL(apiURL string) Option {
	return func(u *Uploader) {
		u.apiURL = strings.TrimSuffix(apiURL, "/")
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

func New(cfg config.GithubConfig, opts ...Option) *Uploader {
	u := &Uploader{
		client: &http.Client{Timeout: 30 * time.Second},
		apiURL: defaultAPIURL,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload creates or replaces the configured file with content. The SHA of
// an existing file is looked up first, since GitHub refuses to overwrite a
// file without it.
func (u *Uploader) Upload(ctx context.Context, content []byte, message string) error {
	sha, err := u.existingSHA(ctx)
	if err != nil {
		return err
	}

	body := GitHubUploadRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  u.cfg.Branch,
	}
	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := u.newRequest(ctx, http.MethodPut, u.contentsURL(""), bytes.NewReader(bodyJSON))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status code %d, response: %s", ErrUpload, resp.StatusCode, respBody)
	}

	u.logger.Info("uploaded file to GitHub", "repo", u.cfg.Repo, "path", u.cfg.Path, "update", sha != "")
	return nil
}

// existingSHA returns the blob SHA of the current file, or "" if there is none.
func (u *Uploader) existingSHA(ctx context.Context) (string, error) {
	req, err := u.newRequest(ctx, http.MethodGet, u.contentsURL(u.cfg.Branch), nil)
	if err != nil {
		return "", err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode >= 400:
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status code %d, response: %s", ErrUpload, resp.StatusCode, respBody)
	}

	var content contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return "", fmt.Errorf("error decoding contents response: %w", err)
	}
	return content.SHA, nil
}

func (u *Uploader) contentsURL(ref string) string {
	contentsURL := fmt.Sprintf("%s/repos/%s/contents/%s", u.apiURL, u.cfg.Repo, strings.TrimPrefix(u.cfg.Path, "/"))
	if ref != "" {
		contentsURL += "?ref=" + url.QueryEscape(ref)
	}
	return contentsURL
}

func (u *Uploader) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	return req, nil
}
