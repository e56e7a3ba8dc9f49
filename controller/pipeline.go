package controller

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-motion/config"
	"github.com/nvr-ai/go-motion/detector"
	"github.com/nvr-ai/go-motion/images"
	"github.com/nvr-ai/go-motion/overlay"
	"github.com/nvr-ai/go-motion/profiler"
	"gocv.io/x/gocv"
)

// Pipeline owns one instance of each stage and runs the per-tick state
// machine. It is not safe for concurrent use; run one pipeline per stream.
type Pipeline struct {
	id        uuid.UUID
	threshold float64
	logger    *slog.Logger
	profiler  *profiler.RuntimeProfiler

	gate       ChangeGate
	segmenter  Segmenter
	compositor Compositor

	passthrough gocv.Mat
	empty       gocv.Mat

	tick   int64
	phase  Phase
	seeded bool

	// Lifetime counters read by the profiler's report goroutine.
	ticks   atomic.Int64
	changed atomic.Int64
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The pipeline adds a "stream" attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProfiler shares a profiler instead of creating a private one.
func WithProfiler(rp *profiler.RuntimeProfiler) Option {
	return func(p *Pipeline) {
		p.profiler = rp
	}
}

// WithID sets the stream id used in log records.
func WithID(id uuid.UUID) Option {
	return func(p *Pipeline) {
		p.id = id
	}
}

// WithStages replaces the stages built from configuration. A nil argument
// keeps the configured stage. The pipeline takes ownership of every stage.
func WithStages(gate ChangeGate, segmenter Segmenter, compositor Compositor) Option {
	return func(p *Pipeline) {
		p.gate = gate
		p.segmenter = segmenter
		p.compositor = compositor
	}
}

// NewPipeline validates cfg and builds the gate, segmenter and compositor.
//
// Arguments:
//   - cfg: The pipeline configuration.
//   - opts: Optional overrides.
//
// Returns:
//   - *Pipeline: The ready pipeline. Close it when done.
//   - error: A configuration error if cfg is invalid.
//
// @example
// p, err := controller.NewPipeline(config.Default(), controller.WithLogger(logger))
// defer p.Close()
// res, err := p.Tick(frame)
func NewPipeline(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		id:        uuid.New(),
		threshold: cfg.MSEThreshold,
		phase:     PhaseStatic,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("stream", p.id.String())
	if p.profiler == nil {
		p.profiler = profiler.NewRuntimeProfiler(profiler.ProfilingOptions{Logger: p.logger})
	}
	p.profiler.AddMetricsCollector(p)

	p.passthrough = gocv.NewMat()
	p.empty = gocv.NewMat()

	if err := p.buildStages(cfg); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Pipeline) buildStages(cfg config.Config) error {
	if p.gate == nil {
		dc, err := cfg.Detector()
		if err != nil {
			return err
		}
		gate, err := detector.New(dc)
		if err != nil {
			return err
		}
		p.gate = gate
	}

	if p.segmenter == nil {
		sc, err := cfg.BackgroundSegmenter()
		if err != nil {
			return err
		}
		seg, err := images.NewBackgroundSegmenter(sc)
		if err != nil {
			return err
		}
		p.segmenter = seg
	}

	if p.compositor == nil {
		oc, err := cfg.Compositor()
		if err != nil {
			return err
		}
		comp, err := overlay.NewCompositor(oc)
		if err != nil {
			return err
		}
		p.compositor = comp
	}
	return nil
}

// ID returns the stream id.
func (p *Pipeline) ID() uuid.UUID {
	return p.id
}

// Profiler returns the profiler recording this pipeline's stage timings.
func (p *Pipeline) Profiler() *profiler.RuntimeProfiler {
	return p.profiler
}

// Phase returns the phase of the most recent tick.
func (p *Pipeline) Phase() Phase {
	return p.phase
}

// Tick runs one frame through the pipeline.
//
// The gate always runs. On the first frame of a stream the frame also seeds
// the background model so that later changes are measured against it. When
// the gate average exceeds the threshold the frame is segmented and
// composited; otherwise a copy of the frame passes through.
//
// Arguments:
//   - frame: The source frame.
//
// Returns:
//   - Result: The tick outcome. Its Mats are reused by the next Tick.
//   - error: An input error for a bad frame; stage errors are returned as is.
func (p *Pipeline) Tick(frame gocv.Mat) (Result, error) {
	start := time.Now()

	if err := images.ValidateFrame(frame); err != nil {
		return Result{}, err
	}
	p.tick++
	res := Result{Tick: p.tick, Mask: p.empty}

	done := p.profiler.StartOperation(profiler.StageGate)
	avg, scores, err := p.gate.Update(frame)
	done()
	if err != nil {
		return res, err
	}
	res.Score = avg
	res.Scores = append([]float64(nil), scores...)
	p.profiler.RecordMetric("gate_average", avg)

	if !p.seeded {
		done = p.profiler.StartOperation(profiler.StageSegment)
		_, err := p.segmenter.Update(frame)
		done()
		if err != nil {
			return res, err
		}
		p.seeded = true
		p.logger.Debug("baseline established", "tick", p.tick)
	}

	phase := Decide(avg, p.threshold)
	if phase != p.phase {
		p.logger.Debug("phase transition",
			"tick", p.tick,
			"from", p.phase.String(),
			"to", phase.String(),
			"score", avg,
		)
		p.phase = phase
	}
	res.Phase = phase

	switch phase {
	case PhaseChanged:
		if err := p.runHeavyPath(frame, &res); err != nil {
			return res, err
		}
	default:
		frame.CopyTo(&p.passthrough)
		res.Frame = p.passthrough
	}

	p.ticks.Add(1)
	if phase == PhaseChanged {
		p.changed.Add(1)
	}
	res.Elapsed = time.Since(start)
	p.profiler.ObserveStage(profiler.StageTick, res.Elapsed)
	return res, nil
}

func (p *Pipeline) runHeavyPath(frame gocv.Mat, res *Result) error {
	done := p.profiler.StartOperation(profiler.StageSegment)
	mask, err := p.segmenter.Update(frame)
	done()
	if err != nil {
		return err
	}
	res.Mask = mask

	done = p.profiler.StartOperation(profiler.StageComposite)
	out, err := p.compositor.Update(frame, mask)
	done()
	if err != nil {
		return err
	}
	res.Frame = out
	res.Boxes = append(res.Boxes, p.compositor.BoundingBoxes()...)
	res.TotalArea = p.compositor.TotalArea()
	p.profiler.RecordMetric("motion_area", res.TotalArea)
	return nil
}

// CollectMetrics implements profiler.MetricsCollector with the lifetime tick
// count and the share of ticks that took the heavy path.
func (p *Pipeline) CollectMetrics() map[string]float64 {
	ticks := p.ticks.Load()
	if ticks == 0 {
		return map[string]float64{"ticks": 0}
	}
	return map[string]float64{
		"ticks":         float64(ticks),
		"changed_ratio": float64(p.changed.Load()) / float64(ticks),
	}
}

// Reset clears the gate baseline and the background model. The next frame
// is treated as the first frame of a new stream.
func (p *Pipeline) Reset() {
	p.gate.Reset()
	p.segmenter.Reset()
	p.seeded = false
	p.phase = PhaseStatic
	p.logger.Debug("pipeline reset", "tick", p.tick)
}

// Close releases every stage and buffer.
func (p *Pipeline) Close() {
	if p.gate != nil {
		p.gate.Close()
	}
	if p.segmenter != nil {
		p.segmenter.Close()
	}
	if p.compositor != nil {
		p.compositor.Close()
	}
	p.passthrough.Close()
	p.empty.Close()
}
