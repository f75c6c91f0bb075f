package nats

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stone-age-io/asset-collector/internal/config"
	"go.uber.org/zap"
)

// Client publishes uploaded asset records for other consumers on the bus
type Client struct {
	conn    *nats.Conn
	logger  *zap.Logger
	subject string
	timeout time.Duration
}

// NewClient connects to cfg.URL. The run is one-shot so reconnects are disabled.
func NewClient(cfg *config.NATSConfig, logger *zap.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("asset-collector"),
		nats.Timeout(cfg.Timeout),
		nats.NoReconnect(),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Warn("NATS error", zap.Error(err))
		}),
	}

	if cfg.TLS.Enabled {
		tlsConfig, err := createTLSConfig(&cfg.TLS, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, nats.Secure(tlsConfig))
		if cfg.TLS.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for NATS")
		}
	}

	auth, err := authOptions(&cfg.Auth, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts, auth...)

	logger.Debug("Connecting to NATS", zap.String("url", cfg.URL))
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS",
		zap.String("url", conn.ConnectedUrl()),
		zap.String("server_id", conn.ConnectedServerId()))

	return &Client{
		conn:    conn,
		logger:  logger,
		subject: InventorySubject(cfg.SubjectPrefix),
		timeout: cfg.Timeout,
	}, nil
}

// InventorySubject is where uploaded records are published
func InventorySubject(prefix string) string {
	return prefix + ".inventory"
}

// authOptions maps the configured auth type to connect options
func authOptions(cfg *config.AuthConfig, logger *zap.Logger) ([]nats.Option, error) {
	switch cfg.Type {
	case "token":
		logger.Debug("Using token authentication")
		return []nats.Option{nats.Token(cfg.Token)}, nil
	case "userpass":
		logger.Debug("Using username/password authentication", zap.String("username", cfg.Username))
		return []nats.Option{nats.UserInfo(cfg.Username, cfg.Password)}, nil
	case "creds":
		logger.Debug("Using credentials file authentication", zap.String("file", cfg.CredsFile))
		return []nats.Option{nats.UserCredentials(cfg.CredsFile)}, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid auth type: %s", cfg.Type)
	}
}

// createTLSConfig builds the client TLS settings: an optional CA pool for the
// server certificate and an optional client certificate for mutual TLS
func createTLSConfig(cfg *config.TLSConfig, logger *zap.Logger) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CAFile != "" {
		caCert, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
		logger.Debug("Loaded CA certificate", zap.String("file", cfg.CAFile))
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
		logger.Debug("Loaded client certificate", zap.String("cert", cfg.CertFile))
	}

	return tlsConfig, nil
}

// PublishInventory sends the record JSON and waits for the server to take it
func (c *Client) PublishInventory(data []byte) error {
	if err := c.conn.Publish(c.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", c.subject, err)
	}
	if err := c.conn.FlushTimeout(c.timeout); err != nil {
		return fmt.Errorf("failed to flush publish to %s: %w", c.subject, err)
	}

	c.logger.Info("Published inventory",
		zap.String("subject", c.subject),
		zap.Int("bytes", len(data)))
	return nil
}

// Close drains pending data and closes the connection
func (c *Client) Close() {
	if c.conn.IsClosed() {
		return
	}
	if err := c.conn.Drain(); err != nil {
		c.logger.Debug("NATS drain failed, closing", zap.Error(err))
		c.conn.Close()
	}
}
