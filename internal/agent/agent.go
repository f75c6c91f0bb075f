package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stone-age-io/asset-collector/internal/config"
	"github.com/stone-age-io/asset-collector/internal/console"
	"github.com/stone-age-io/asset-collector/internal/inventory"
	natsclient "github.com/stone-age-io/asset-collector/internal/nats"
	"github.com/stone-age-io/asset-collector/internal/network"
	"github.com/stone-age-io/asset-collector/internal/uploader"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Agent owns the configuration, logger and the interactive session
type Agent struct {
	config  *config.Config
	logger  *zap.Logger
	session *Session
	version string
}

// New loads configuration and wires the session against the real machine and console
func New(configPath string, version string) (*Agent, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting asset-collector",
		zap.String("version", version),
		zap.String("config", configPath))

	kw := network.Keywords{
		Virtual:  cfg.Network.VirtualKeywords,
		Physical: cfg.Network.PhysicalKeywords,
	}

	deps := Deps{
		Prompter:    console.NewPrompter(os.Stdin, os.Stdout),
		Prober:      inventory.NewSystemProber(logger),
		Recommender: network.NewRecommender(network.NewClassifier(nil, kw), logger),
		NewUploader: func(baseURL string) Uploader {
			return uploader.NewClient(baseURL, cfg.Server, version, logger)
		},
		MetricsPath: cfg.Metrics.Textfile,
		Now:         time.Now,
	}

	if cfg.NATS.URL != "" {
		deps.Connect = func() (Publisher, error) {
			client, err := natsclient.NewClient(&cfg.NATS, logger)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}

	return &Agent{
		config:  cfg,
		logger:  logger,
		session: NewSession(cfg, logger, deps),
		version: version,
	}, nil
}

// Run performs one collection. A non-nil *ExitError carries the process exit code.
func (a *Agent) Run(ctx context.Context) error {
	defer a.logger.Sync()

	err := a.session.Run(ctx)
	a.logger.Info("Collection finished", zap.Error(err))
	return err
}

// initLogger creates the logger with a rotating JSON file and a console core.
// The console is the operator's UI, so only warnings reach it by default.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	return buildLogger(cfg, zapcore.Lock(os.Stderr))
}

// buildLogger writes console output and zap's own errors to consoleOut
func buildLogger(cfg config.LoggingConfig, consoleOut zapcore.WriteSyncer) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var consoleLevel zapcore.Level
	if err := consoleLevel.UnmarshalText([]byte(cfg.ConsoleLevel)); err != nil {
		return nil, fmt.Errorf("invalid console log level: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)
	consoleCore := zapcore.NewCore(consoleEncoder, consoleOut, consoleLevel)

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(consoleOut),
	}

	// lumberjack reports an unwritable file on every entry; check once up front
	fileErr := checkLogFile(cfg.File)
	if fileErr != nil {
		logger := zap.New(consoleCore, opts...)
		logger.Warn("Log file not writable, logging to console only",
			zap.String("file", cfg.File),
			zap.Error(fileErr))
		return logger, nil
	}

	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     28, // days
		Compress:   true,
	}

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(fileWriter), level),
		consoleCore,
	)

	return zap.New(core, opts...), nil
}

// checkLogFile creates the log directory and file if needed and confirms they can be written
func checkLogFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}
