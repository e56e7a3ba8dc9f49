package controller

import (
	"log/slog"
)

// Sink consumes tick results.
type Sink interface {
	Consume(res Result) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(res Result) error

// Consume implements Sink.
func (f SinkFunc) Consume(res Result) error {
	return f(res)
}

// LogSink logs changed ticks whose total motion area exceeds MinArea.
type LogSink struct {
	Logger  *slog.Logger
	MinArea float64
}

// Consume implements Sink.
func (s LogSink) Consume(res Result) error {
	if !res.Changed() || res.TotalArea <= s.MinArea {
		return nil
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("motion detected",
		"tick", res.Tick,
		"score", res.Score,
		"area_k", res.TotalArea/1000,
		"boxes", len(res.Boxes),
		"elapsed", res.Elapsed,
	)
	for _, box := range res.Boxes {
		logger.Debug("motion region", "tick", res.Tick, "box", box.String())
	}
	return nil
}

// MultiSink fans a result out to every sink in order, stopping at the first
// error.
type MultiSink []Sink

// Consume implements Sink.
func (m MultiSink) Consume(res Result) error {
	for _, s := range m {
		if err := s.Consume(res); err != nil {
			return err
		}
	}
	return nil
}
