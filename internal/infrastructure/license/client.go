// Package license talks to the remote license server.
package license

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

	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/domain/licensing"
	"github.com/notaris/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const (
	activatePath   = "/v1/licenses/activate"
	verifyPath     = "/v1/licenses/verify"
	deactivatePath = "/v1/licenses/deactivate"

	maxResponseSize = 1 << 20
)

// Client implements licensing.Server over HTTPS and JSON.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.LicenseConfig, logger *zap.Logger) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("license server URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.ServerURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

type licenseRequest struct {
	Key    string `json:"key"`
	Domain string `json:"domain"`
	Office string `json:"office,omitempty"`
}

type grantResponse struct {
	Status     string              `json:"status"`
	Edition    string              `json:"edition"`
	ValidUntil *time.Time          `json:"valid_until"`
	Features   map[string][]string `json:"features"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) Activate(ctx context.Context, req licensing.ServerRequest) (*licensing.Grant, error) {
	return c.grant(ctx, activatePath, req)
}

func (c *Client) Verify(ctx context.Context, req licensing.ServerRequest) (*licensing.Grant, error) {
	return c.grant(ctx, verifyPath, req)
}

func (c *Client) Deactivate(ctx context.Context, req licensing.ServerRequest) error {
	_, err := c.doRequest(ctx, deactivatePath, req)
	return err
}

func (c *Client) grant(ctx context.Context, path string, req licensing.ServerRequest) (*licensing.Grant, error) {
	body, err := c.doRequest(ctx, path, req)
	if err != nil {
		return nil, err
	}
	var resp grantResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", licensing.ErrServerUnavailable, err)
	}
	return resp.toGrant(c.logger), nil
}

// toGrant drops unknown roles and features so a newer server cannot
// grant something this build does not understand.
func (r grantResponse) toGrant(logger *zap.Logger) *licensing.Grant {
	features := make(licensing.RoleFeatures, len(r.Features))
	for roleName, keys := range r.Features {
		role, err := identity.ParseRole(roleName)
		if err != nil {
			logger.Debug("ignoring unknown role in license grant", zap.String("role", roleName))
			continue
		}
		for _, k := range keys {
			f, err := licensing.ParseFeature(k)
			if err != nil {
				logger.Debug("ignoring unknown feature in license grant", zap.String("feature", k))
				continue
			}
			features[role] = append(features[role], f)
		}
	}
	return &licensing.Grant{
		Status:       licensing.ParseStatus(r.Status),
		Edition:      r.Edition,
		ValidUntil:   r.ValidUntil,
		RoleFeatures: features,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, req licensing.ServerRequest) ([]byte, error) {
	payload, err := json.Marshal(licenseRequest{Key: req.Key, Domain: req.Domain, Office: req.OfficeCode})
	if err != nil {
		return nil, fmt.Errorf("license: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("license: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("license server unreachable", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", licensing.ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", licensing.ErrServerUnavailable, err)
	}

	c.logger.Debug("license server call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", licensing.ErrServerUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			return nil, fmt.Errorf("%w: %s", licensing.ErrKeyRejected, errResp.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", licensing.ErrKeyRejected, resp.StatusCode)
	}
	return body, nil
}

var _ licensing.Server = (*Client)(nil)
