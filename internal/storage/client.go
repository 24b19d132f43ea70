package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inquiry-service/internal/config"
	apperrors "github.com/spec-kit/inquiry-service/pkg/util"
)

// Method scopes a signed URL to one HTTP verb.
type Method string

const (
	MethodRead  Method = "read"
	MethodWrite Method = "write"
)

// ObjectStore is the object-storage collaborator: short-lived method-scoped
// signed URLs, existence checks, and idempotent deletes.
type ObjectStore interface {
	SignedURL(ctx context.Context, key string, method Method, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Client talks to the storage signer sidecar over HTTP. Bucket credentials
// stay with the sidecar; this service only holds object keys.
type Client struct {
	cfg        config.StorageConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds the storage client.
func NewClient(cfg config.StorageConfig, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type signRequest struct {
	Bucket     string `json:"bucket"`
	Key        string `json:"key"`
	Method     string `json:"method"`
	TTLSeconds int    `json:"ttl_seconds"`
}

type signResponse struct {
	URL string `json:"url"`
}

// SignedURL requests a short-lived URL scoped to the given method.
func (c *Client) SignedURL(ctx context.Context, key string, method Method, ttl time.Duration) (string, error) {
	if c.cfg.BaseURL == "" {
		return "", apperrors.NewServerConfigError("object storage signer not configured")
	}

	payload, err := json.Marshal(signRequest{
		Bucket:     c.cfg.Bucket,
		Key:        key,
		Method:     string(method),
		TTLSeconds: int(ttl.Seconds()),
	})
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/sign",
		strings.NewReader(string(payload)))
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewUpstreamUnavailable("object storage unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewUpstreamUnavailable(
			fmt.Sprintf("storage signer returned status %d", resp.StatusCode), nil)
	}

	var signed signResponse
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", apperrors.NewUpstreamUnavailable("storage signer response unreadable", err)
	}
	return signed.URL, nil
}

// Exists checks whether the object is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	resp, err := c.objectRequest(ctx, http.MethodHead, key)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apperrors.NewUpstreamUnavailable(
			fmt.Sprintf("object storage returned status %d", resp.StatusCode), nil)
	}
}

// Delete removes the object; a missing object is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	resp, err := c.objectRequest(ctx, http.MethodDelete, key)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusNotFound {
		return apperrors.NewUpstreamUnavailable(
			fmt.Sprintf("object storage returned status %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) objectRequest(ctx context.Context, method, key string) (*http.Response, error) {
	if c.cfg.BaseURL == "" {
		return nil, apperrors.NewServerConfigError("object storage signer not configured")
	}
	endpoint := fmt.Sprintf("%s/objects/%s/%s", c.cfg.BaseURL, c.cfg.Bucket, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("object storage unavailable", err)
	}
	return resp, nil
}
