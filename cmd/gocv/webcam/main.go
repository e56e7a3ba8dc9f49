package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/nvr-ai/go-motion/config"
	"github.com/nvr-ai/go-motion/controller"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/util"
	"github.com/pkg/errors"
)

func main() {
	device := flag.String("device", "0", "Capture device id")
	width := flag.Int("width", 1280, "Capture width frames are resized to")
	height := flag.Int("height", 720, "Capture height frames are resized to")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	webcam, err := util.OpenVideoSource(*device, images.Res(*width, *height))
	if err != nil {
		logger.Error("open device", "device", *device, "error", err)
		return
	}
	defer webcam.Close()

	p, err := controller.NewPipeline(config.Default(), controller.WithLogger(logger))
	if err != nil {
		logger.Error("create pipeline", "error", err)
		return
	}
	defer p.Close()

	window := controller.NewDisplay("Motion", config.Default().ReportArea)
	defer window.Close()

	logger.Info("start reading camera device", "device", *device)
	stats, err := controller.Run(context.Background(), p, webcam, window)
	if err != nil && !errors.Is(err, controller.ErrStopped) {
		logger.Error("stream failed", "error", err)
	}
	logger.Info("done", "frames", stats.Frames, "changed", stats.Changed, "fps", float64(stats.Frames)/stats.Elapsed.Seconds())
}
