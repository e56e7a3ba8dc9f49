package controller

import (
	"context"
	"time"

	"github.com/nvr-ai/go-motion/config"
	"github.com/nvr-ai/go-motion/util"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"golang.org/x/sync/errgroup"
)

// Stats summarises a run.
type Stats struct {
	Frames  int64
	Changed int64
	Static  int64
	Boxes   int64
	MaxArea float64
	Elapsed time.Duration
}

func (s *Stats) observe(res Result) {
	s.Frames++
	if res.Changed() {
		s.Changed++
	} else {
		s.Static++
	}
	s.Boxes += int64(len(res.Boxes))
	s.MaxArea = max(s.MaxArea, res.TotalArea)
}

// Run reads frames from src, ticks them through p and hands every result to
// sink until the source is exhausted.
//
// Frames are processed strictly in order on the calling goroutine. The
// context is checked before each frame, never mid-frame. The first source,
// pipeline or sink error ends the run and is returned; nothing is retried.
//
// Arguments:
//   - ctx: Cancels the run between frames.
//   - p: The pipeline; Run does not close it.
//   - src: The frame source; Run does not close it.
//   - sink: Receives every result. May be nil.
//
// Returns:
//   - Stats: Counters for the frames processed so far.
//   - error: nil at end of stream, ctx.Err() on cancellation, or the first failure.
func Run(ctx context.Context, p *Pipeline, src util.Source, sink Sink) (stats Stats, err error) {
	start := time.Now()
	defer func() { stats.Elapsed = time.Since(start) }()

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if err := src.Read(&frame); err != nil {
			if errors.Is(err, util.ErrEndOfStream) {
				return stats, nil
			}
			return stats, err
		}

		res, err := p.Tick(frame)
		if err != nil {
			return stats, errors.Wrapf(err, "frame %d", stats.Frames+1)
		}
		stats.observe(res)

		if sink != nil {
			if err := sink.Consume(res); err != nil {
				return stats, errors.Wrapf(err, "sink at tick %d", res.Tick)
			}
		}
	}
}

// Stream is one camera feed for RunStreams.
type Stream struct {
	Name   string
	Config config.Config
	Source util.Source
	Sink   Sink
}

// RunStreams runs every stream on its own goroutine with its own pipeline.
// Pipelines are never shared, so opts must not carry WithStages. The first
// failing stream cancels the others.
//
// Returns:
//   - []Stats: Per-stream counters, in the order of streams.
//   - error: The first stream error, if any.
func RunStreams(ctx context.Context, streams []Stream, opts ...Option) ([]Stats, error) {
	results := make([]Stats, len(streams))
	g, gctx := errgroup.WithContext(ctx)

	for i, stream := range streams {
		g.Go(func() error {
			p, err := NewPipeline(stream.Config, opts...)
			if err != nil {
				return errors.Wrapf(err, "stream %s", stream.Name)
			}
			defer p.Close()

			p.logger = p.logger.With("name", stream.Name)
			stats, err := Run(gctx, p, stream.Source, stream.Sink)
			results[i] = stats
			if err != nil {
				return errors.Wrapf(err, "stream %s", stream.Name)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
