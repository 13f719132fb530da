package storage

import (
	"context"
	"errors"
	"fmt"

	"txScope/internal/model"
)

// Sink receives finished analysis artifacts.
type Sink interface {
	Name() string
	Write(ctx context.Context, artifact *model.Artifact) error
	Close() error
}

// MultiSink fans an artifact out to every configured sink.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	out := &MultiSink{}
	for _, sink := range sinks {
		if sink != nil {
			out.sinks = append(out.sinks, sink)
		}
	}
	return out
}

func (m *MultiSink) Name() string { return "multi" }

// Len reports how many sinks are attached.
func (m *MultiSink) Len() int { return len(m.sinks) }

// Write delivers to every sink even when an earlier one fails.
func (m *MultiSink) Write(ctx context.Context, artifact *model.Artifact) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, artifact); err != nil {
			errs = append(errs, &SinkError{Sink: sink.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, &SinkError{Sink: sink.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// SinkError names the sink that failed.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string { return fmt.Sprintf("%s sink: %v", e.Sink, e.Err) }

func (e *SinkError) Unwrap() error { return e.Err }
