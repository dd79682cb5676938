// Package media removes uploaded files from the upload service when their
// owning question is deleted.
package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/synapaxon/question-bank/internal/question"
)

// Config holds connection details for the upload service.
type Config struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
}

// Cleaner implements question.MediaCleaner against the upload service's
// delete endpoint.
type Cleaner struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
	baseURL    string
}

var _ question.MediaCleaner = (*Cleaner)(nil)

func NewCleaner(cfg Config, logger zerolog.Logger) *Cleaner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Cleaner{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
		logger:     logger.With().Str("component", "media_cleaner").Logger(),
		baseURL:    cfg.BaseURL,
	}
}

// Remove deletes every uploaded file referenced by the given media items.
// URL references are skipped; per-item failures are logged and the last one
// returned, but the caller treats cleanup as best-effort.
func (c *Cleaner) Remove(ctx context.Context, items []question.Media) error {
	var lastErr error
	for _, item := range items {
		if item.MimeType == question.URLMimeType || item.Filename == "" {
			continue
		}
		if err := c.remove(ctx, item.Filename); err != nil {
			c.logger.Warn().Err(err).Str("filename", item.Filename).Msg("failed to delete media object")
			lastErr = err
		}
	}
	return lastErr
}

func (c *Cleaner) remove(ctx context.Context, filename string) error {
	target := fmt.Sprintf("%s/files/%s", c.baseURL, url.PathEscape(filename))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("upload service returned status %d", resp.StatusCode)
	}
	return nil
}
