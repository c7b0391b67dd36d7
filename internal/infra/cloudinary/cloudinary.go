package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/LinkDesk/config"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBaseURL = "https://api.cloudinary.com/v1_1"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 2048
)

var (
	// ErrNotConfigured is returned when no cloud name or upload preset is set.
	ErrNotConfigured = errors.New("cloudinary: uploads are not configured")
	// ErrUploadFailed wraps the first failure of a batch.
	ErrUploadFailed = errors.New("cloudinary: upload failed")
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Client uploads images with Cloudinary's unsigned upload API.
type Client struct {
	http      *http.Client
	logger    *zap.Logger
	uploadURL string
	apiKey    string
	preset    string
	now       func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for uploads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a Client from application config.
func New(cfg config.CloudinaryConfig, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	c := &Client{
		http:   &http.Client{Timeout: defaultTimeout},
		logger: zap.NewNop(),
		apiKey: cfg.APIKey,
		preset: cfg.UploadPreset,
		now:    time.Now,
	}
	if cfg.CloudName != "" {
		c.uploadURL = fmt.Sprintf("%s/%s/auto/upload", base, cfg.CloudName)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload sends every non-empty file concurrently and returns one URL per
// input file, in input order. Files with no bytes are not sent and get "".
// If any upload fails the whole batch fails and no URL is returned; images
// already stored on the host are not removed.
func (c *Client) Upload(ctx context.Context, files []model.ImageFile, folder string) ([]string, error) {
	if c.uploadURL == "" || c.preset == "" {
		return nil, ErrNotConfigured
	}

	urls := make([]string, len(files))
	sent := 0
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		sent++
		i, f := i, f
		g.Go(func() error {
			url, err := c.uploadOne(gctx, f, folder)
			if err != nil {
				metrics.ImageUploadsTotal.WithLabelValues("failure").Inc()
				return fmt.Errorf("%s: %w", f.Filename, err)
			}
			metrics.ImageUploadsTotal.WithLabelValues("success").Inc()
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.logger.Error("image upload failed", zap.Int("files", sent), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	c.logger.Debug("images uploaded", zap.Int("files", sent), zap.String("folder", folder))
	return urls, nil
}

func (c *Client) uploadOne(ctx context.Context, f model.ImageFile, folder string) (string, error) {
	body, contentType, err := c.buildForm(f, folder)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.SecureURL == "" {
		return "", errors.New("response has no secure_url")
	}
	return out.SecureURL, nil
}

func (c *Client) buildForm(f model.ImageFile, folder string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ key, value string }{
		{"upload_preset", c.preset},
		{"api_key", c.apiKey},
		{"folder", folder},
		{"public_id", c.publicID()},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := w.WriteField(field.key, field.value); err != nil {
			return nil, "", err
		}
	}

	name := f.Filename
	if name == "" {
		name = "image"
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// publicID mirrors the console's "<unix-millis>_<random>" naming.
func (c *Client) publicID() string {
	return fmt.Sprintf("%d_%s", c.now().UnixMilli(), strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}
