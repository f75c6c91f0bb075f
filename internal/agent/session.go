package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stone-age-io/asset-collector/internal/config"
	"github.com/stone-age-io/asset-collector/internal/console"
	"github.com/stone-age-io/asset-collector/internal/inventory"
	"github.com/stone-age-io/asset-collector/internal/metrics"
	"github.com/stone-age-io/asset-collector/internal/network"
	"github.com/stone-age-io/asset-collector/internal/uploader"
	"go.uber.org/zap"
)

// ExitError asks the caller to exit with Code after the message was shown
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Uploader is the server side of a session
type Uploader interface {
	Probe(ctx context.Context) bool
	Upload(ctx context.Context, rec *inventory.AssetRecord) error
}

// Publisher receives the record after a successful upload
type Publisher interface {
	PublishInventory(data []byte) error
	Close()
}

// AddressRecommender produces the addresses shown to the operator
type AddressRecommender interface {
	Recommend(ctx context.Context) (network.RecommendationList, network.Tiers)
}

// Deps are the session's collaborators. Connect is nil when NATS is disabled
// and an empty MetricsPath disables the textfile.
type Deps struct {
	Prompter    *console.Prompter
	Prober      inventory.Prober
	Recommender AddressRecommender
	NewUploader func(baseURL string) Uploader
	Connect     func() (Publisher, error)
	MetricsPath string
	Now         func() time.Time
}

// Session is one interactive collection run
type Session struct {
	cfg    *config.Config
	logger *zap.Logger
	deps   Deps
}

// NewSession creates a session. A nil deps.Now defaults to time.Now.
func NewSession(cfg *config.Config, logger *zap.Logger, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{cfg: cfg, logger: logger, deps: deps}
}

// Run walks the operator through collection and upload. Interrupts end the
// run quietly; missing required input returns an *ExitError with code 1.
func (s *Session) Run(ctx context.Context) error {
	err := s.run(ctx)
	if errors.Is(err, console.ErrCancelled) || (err != nil && ctx.Err() != nil) {
		s.deps.Prompter.Println("\n\nOperation cancelled.")
		s.logger.Info("Session cancelled by operator")
		return nil
	}
	return err
}

func (s *Session) run(ctx context.Context) error {
	p := s.deps.Prompter

	p.Println("\n====== Asset Management System - Asset Collector ======")
	p.Println("This tool collects hardware information and uploads it to the asset server.")
	p.Println()

	rawName, err := p.Ask(ctx, "Asset name: ")
	if err != nil {
		return err
	}
	name, err := inventory.ValidateName(rawName)
	if err != nil {
		p.Failure("Error: asset name must not be empty")
		return &ExitError{Code: 1, Err: err}
	}

	p.Println("\nCollecting system information...")
	snap := s.deps.Prober.Collect(ctx)
	if ctx.Err() != nil {
		return console.ErrCancelled
	}
	for _, w := range snap.Warnings {
		s.logger.Debug("Section unavailable", zap.String("section", w.Section), zap.Error(w.Err))
	}

	console.PrintMonitors(p, snap.Monitors)
	monitors := snap.Monitors

	edit, err := p.Confirm(ctx, "\nAdd or edit monitor information manually? (Y/N): ")
	if err != nil {
		return err
	}
	if edit {
		if monitors, err = console.EditMonitors(ctx, p); err != nil {
			return err
		}
	}

	recommended, tiers := s.deps.Recommender.Recommend(ctx)
	console.PrintRecommendations(p, recommended)

	host, err := p.Ask(ctx, "\nServer address (e.g. 192.168.1.100): ")
	if err != nil {
		return err
	}
	serverURL, err := uploader.ServerURL(host, s.cfg.Server.DefaultPort)
	if err != nil {
		p.Failure("Error: server address must not be empty")
		return &ExitError{Code: 1, Err: err}
	}

	client := s.deps.NewUploader(serverURL)

	p.Printf("\nConnecting to server %s...\n", serverURL)
	if !client.Probe(ctx) {
		if ctx.Err() != nil {
			return console.ErrCancelled
		}
		p.Println()
		p.Warning("Warning: cannot reach the server, the upload will still be attempted.")
		proceed, err := p.Confirm(ctx, "Continue? (Y/N): ")
		if err != nil {
			return err
		}
		if !proceed {
			p.Println("Operation cancelled.")
			s.logger.Info("Upload abandoned after failed probe", zap.String("server", serverURL))
			return nil
		}
	}

	rec, err := inventory.Assemble(snap, name, monitors, s.deps.Now())
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	p.Println("\nCollection complete, sending to server...")
	start := time.Now()
	uploadErr := client.Upload(ctx, rec)
	elapsed := time.Since(start)
	if uploadErr != nil && ctx.Err() != nil {
		return console.ErrCancelled
	}

	s.report(rec, serverURL, uploadErr)

	s.publish(rec, uploadErr == nil)
	s.writeMetrics(metrics.RunStats{
		Finished:       s.deps.Now(),
		UploadSuccess:  uploadErr == nil,
		UploadDuration: elapsed,
		Monitors:       len(rec.Monitors),
		Tiers:          tiers,
	})

	return p.WaitForEnter(ctx, "\nPress Enter to exit...")
}

// report prints the upload outcome. Upload failures are not fatal to the run.
func (s *Session) report(rec *inventory.AssetRecord, serverURL string, err error) {
	p := s.deps.Prompter

	var statusErr *uploader.StatusError
	switch {
	case err == nil:
		s.logger.Info("Asset uploaded", zap.String("name", rec.Name), zap.String("server", serverURL))
		console.PrintSummary(p, rec, serverURL)
	case errors.As(err, &statusErr):
		s.logger.Warn("Server rejected asset", zap.Int("status", statusErr.Code), zap.String("body", statusErr.Body))
		console.PrintUploadRejected(p, statusErr.Code, statusErr.Body)
	case errors.Is(err, uploader.ErrConnection):
		s.logger.Warn("Upload connection failed", zap.String("server", serverURL), zap.Error(err))
		console.PrintConnectionHints(p)
	default:
		s.logger.Error("Upload failed", zap.Error(err))
		p.Println()
		p.Failure("Error during upload: %v", err)
	}
}

// publish forwards an accepted record to NATS. Failures only reach the log.
func (s *Session) publish(rec *inventory.AssetRecord, uploaded bool) {
	if s.deps.Connect == nil || !uploaded {
		return
	}

	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("Failed to encode record for NATS", zap.Error(err))
		return
	}

	pub, err := s.deps.Connect()
	if err != nil {
		s.logger.Warn("NATS unavailable, record not published", zap.Error(err))
		return
	}
	defer pub.Close()

	if err := pub.PublishInventory(data); err != nil {
		s.logger.Warn("Failed to publish record", zap.Error(err))
	}
}

func (s *Session) writeMetrics(stats metrics.RunStats) {
	if s.deps.MetricsPath == "" {
		return
	}
	if err := metrics.WriteTextfile(s.deps.MetricsPath, stats); err != nil {
		s.logger.Warn("Failed to write metrics textfile",
			zap.String("path", s.deps.MetricsPath),
			zap.Error(err))
	}
}
