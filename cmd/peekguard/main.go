// peekguard watches a camera feed and hides the screen when someone is peeking.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/teslashibe/go-peekguard/internal/config"
	"github.com/teslashibe/go-peekguard/internal/log"
	"github.com/teslashibe/go-peekguard/pkg/camera"
	"github.com/teslashibe/go-peekguard/pkg/detection"
	"github.com/teslashibe/go-peekguard/pkg/detection/onnx"
	"github.com/teslashibe/go-peekguard/pkg/frame"
	"github.com/teslashibe/go-peekguard/pkg/history"
	"github.com/teslashibe/go-peekguard/pkg/hub"
	"github.com/teslashibe/go-peekguard/pkg/pipeline"
	"github.com/teslashibe/go-peekguard/pkg/protection"
	"github.com/teslashibe/go-peekguard/pkg/settings"
	"github.com/teslashibe/go-peekguard/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	parseFlags(cfg)

	logger := log.Init(log.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer log.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("peekguard stopped", "error", err)
		os.Exit(1)
	}
}

// parseFlags lets command line flags override the environment.
func parseFlags(cfg *config.Config) {
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	model := flag.String("model", cfg.ModelPath, "Path to the ONNX face model")
	cameraURL := flag.String("camera-url", cfg.CameraURL, "Snapshot URL to poll for frames")
	cameraDir := flag.String("camera-dir", cfg.CameraDir, "Directory of images to replay as frames")
	simulate := flag.Bool("simulate", cfg.Simulate, "Run without a model (test mode)")
	autostart := flag.Bool("autostart", cfg.AutoStart, "Start detecting immediately")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg.Addr, cfg.ModelPath = *addr, *model
	cfg.CameraURL, cfg.CameraDir = *cameraURL, *cameraDir
	cfg.Simulate, cfg.AutoStart = *simulate, *autostart
	if *debug {
		cfg.LogLevel = "debug"
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	store, err := openSettingsStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	current, err := settings.LoadOrDefault(ctx, store)
	if err != nil {
		logger.Warn("saved settings unreadable, using defaults", "error", err)
	}
	holder := settings.NewHolder(current)

	hist, err := history.OpenSQLite(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer hist.Close()

	photos, err := history.NewPhotoStore(filepath.Join(cfg.DataDir, "photos"))
	if err != nil {
		return err
	}

	detCfg := detection.DefaultConfig()
	detCfg.ModelPath = cfg.ModelPath
	detCfg.Timeout = cfg.DetectTimeout

	detector, err := openDetector(detCfg, cfg.Simulate, logger)
	if err != nil {
		return err
	}
	defer detector.Close()

	source, err := openSource(cfg)
	if err != nil {
		return err
	}

	events := hub.New("events", logger)
	feedback := protection.NewRemoteFeedback(events)
	dispatcher := protection.NewDispatcher(feedback, feedback, protection.WithLogger(logger))

	pre := frame.DefaultPreprocessor()
	pre.Width, pre.Height = detCfg.InputWidth, detCfg.InputHeight

	session := pipeline.New(pipeline.Config{
		Preprocessor:  pre,
		Detector:      detector,
		PostProcessor: detection.NewPostProcessor(detCfg),
		Settings:      holder,
		Dispatcher:    dispatcher,
		Source:        source,
		History:       hist,
		Photos:        photos,
		DetectTimeout: detCfg.Timeout,
		Logger:        logger,
	})
	defer session.Stop()

	if cfg.AutoStart {
		if err := session.Start(ctx); err != nil {
			return err
		}
	}

	srv := web.NewServer(cfg.Addr, web.Deps{
		Session:  session,
		Settings: holder,
		Store:    store,
		History:  hist,
		Events:   events,
		Logger:   logger,
	})

	logger.Info("peekguard ready",
		"addr", cfg.Addr,
		"mode", current.Mode,
		"simulate", cfg.Simulate,
		"source", sourceName(cfg))

	return srv.Run(ctx)
}

func openSettingsStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (settings.Store, error) {
	if cfg.RedisAddr != "" {
		return settings.NewRedisStore(ctx, settings.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.SettingsKey,
		}, logger)
	}
	return settings.NewJSONStore(filepath.Join(cfg.DataDir, "settings.json"))
}

func openDetector(cfg detection.Config, simulate bool, logger *slog.Logger) (detection.Detector, error) {
	if simulate {
		logger.Warn("simulation mode: no face model loaded")
		return detection.NewMock(), nil
	}
	det, err := onnx.New(cfg, logger)
	if err != nil {
		return nil, errors.Join(err, errors.New("run with -simulate to start without a model"))
	}
	return det, nil
}

func openSource(cfg *config.Config) (camera.Source, error) {
	switch {
	case cfg.CameraURL != "":
		return camera.NewHTTPSource(cfg.CameraURL), nil
	case cfg.CameraDir != "":
		return camera.NewDirSource(cfg.CameraDir)
	default:
		return nil, nil // frames arrive through the API
	}
}

func sourceName(cfg *config.Config) string {
	switch {
	case cfg.CameraURL != "":
		return cfg.CameraURL
	case cfg.CameraDir != "":
		return cfg.CameraDir
	default:
		return "upload"
	}
}
