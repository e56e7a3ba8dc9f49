// Command go-motion flags motion in a video file, capture device or directory
// of frames and logs every tick whose motion area exceeds the report area.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-motion/config"
	"github.com/nvr-ai/go-motion/controller"
	"github.com/nvr-ai/go-motion/profiler"
	"github.com/nvr-ai/go-motion/util"
	"github.com/pkg/errors"
)

func main() {
	var (
		input      string
		configPath string
		mode       string
		verbose    bool
		showWindow bool
		dumpConfig bool
	)
	flag.StringVar(&input, "input", "0", "Capture device id, video file, stream URL or directory of frames")
	flag.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	flag.StringVar(&mode, "mode", "", "Overlay mode override: none, bounding_box, overlay or both")
	flag.BoolVar(&verbose, "v", false, "Log phase transitions and individual motion regions")
	flag.BoolVar(&showWindow, "window", false, "Show the annotated stream in a window")
	flag.BoolVar(&dumpConfig, "dump-config", false, "Print the effective configuration and exit")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath, mode)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	if dumpConfig {
		out, err := cfg.Marshal()
		if err != nil {
			logger.Error("marshal configuration", "error", err)
			os.Exit(1)
		}
		fmt.Print(string(out))
		return
	}

	if err := run(cfg, input, showWindow, logger); err != nil {
		logger.Error("stream failed", "input", input, "error", err)
		os.Exit(1)
	}
}

func loadConfig(path, mode string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if mode != "" {
		cfg.OverlayMode = mode
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, input string, showWindow bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := cfg.Source()
	if err != nil {
		return err
	}
	src, err := util.Open(input, res)
	if err != nil {
		return err
	}
	defer src.Close()

	rp := profiler.NewRuntimeProfiler(profiler.ProfilingOptions{
		ReportInterval: cfg.ProfileInterval,
		Logger:         logger,
	})
	if cfg.ProfileInterval > 0 {
		rp.Start()
		defer rp.Stop()
	}

	p, err := controller.NewPipeline(cfg, controller.WithLogger(logger), controller.WithProfiler(rp))
	if err != nil {
		return err
	}
	defer p.Close()

	sinks := controller.MultiSink{controller.LogSink{Logger: logger, MinArea: cfg.ReportArea}}
	if showWindow {
		display := controller.NewDisplay("Motion Detection", cfg.ReportArea)
		defer display.Close()
		sinks = append(sinks, display)
	}

	logger.Info("stream started",
		"input", input,
		"stream", p.ID().String(),
		"resolution", cfg.DownsampleResolution,
		"threshold", cfg.MSEThreshold,
		"mode", cfg.OverlayMode,
	)

	stats, err := controller.Run(ctx, p, src, sinks)
	if errors.Is(err, controller.ErrStopped) || errors.Is(err, context.Canceled) {
		err = nil
	}

	logger.Info("stream finished",
		"frames", stats.Frames,
		"changed", stats.Changed,
		"static", stats.Static,
		"boxes", stats.Boxes,
		"max_area", stats.MaxArea,
		"elapsed", stats.Elapsed,
	)
	if cfg.ProfileInterval > 0 {
		rp.Report()
	}
	return err
}
