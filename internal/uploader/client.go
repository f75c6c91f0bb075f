package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stone-age-io/asset-collector/internal/config"
	"github.com/stone-age-io/asset-collector/internal/inventory"
	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of a server reply is read
const maxResponseBytes = 1 << 20

var (
	// ErrEmptyAddress is returned when the operator enters no server address
	ErrEmptyAddress = errors.New("server address must not be empty")

	// ErrConnection wraps transport failures (refused, timeout, DNS)
	ErrConnection = errors.New("cannot connect to server")
)

// StatusError is returned when the server answers with anything but 201 Created
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// ServerURL turns the operator's input into a base URL.
// The scheme is always http and defaultPort is added when no port is given.
func ServerURL(host string, defaultPort int) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", ErrEmptyAddress
	}
	if !strings.Contains(host, ":") {
		host = net.JoinHostPort(host, strconv.Itoa(defaultPort))
	}
	return "http://" + host, nil
}

// Client talks to the inventory server's asset endpoint
type Client struct {
	baseURL       string
	apiPath       string
	probeTimeout  time.Duration
	uploadTimeout time.Duration
	userAgent     string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient creates a client for baseURL as returned by ServerURL
func NewClient(baseURL string, cfg config.ServerConfig, version string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiPath:       cfg.APIPath,
		probeTimeout:  cfg.ProbeTimeout,
		uploadTimeout: cfg.UploadTimeout,
		userAgent:     "asset-collector/" + version,
		httpClient:    createHTTPClient(),
		logger:        logger,
	}
}

// createHTTPClient leaves the overall deadline to the per-request contexts
func createHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConns:        2,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// Endpoint is the full asset URL
func (c *Client) Endpoint() string {
	return c.baseURL + c.apiPath
}

// Probe reports whether the server answers at all. Any HTTP status counts.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(), nil)
	if err != nil {
		c.logger.Debug("Failed to build probe request", zap.Error(err))
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Server probe failed",
			zap.String("url", c.Endpoint()),
			zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	c.logger.Debug("Server probe answered",
		zap.String("url", c.Endpoint()),
		zap.Int("status", resp.StatusCode))
	return true
}

// Upload posts the record. Only 201 Created is success.
func (c *Client) Upload(ctx context.Context, rec *inventory.AssetRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode asset record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Debug("Failed to read response body", zap.Error(err))
	}

	c.logger.Info("Upload finished",
		zap.String("url", c.Endpoint()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusCreated {
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
