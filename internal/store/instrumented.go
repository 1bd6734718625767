package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/toko-cart/internal/cart"
)

// Instrumented wraps a cart.Store with latency metrics and tracing spans.
type Instrumented struct {
	next     cart.Store
	backend  string
	duration *prometheus.HistogramVec
	tracer   trace.Tracer
}

// NewInstrumented wraps next. A nil histogram disables metrics.
func NewInstrumented(next cart.Store, backend string, duration *prometheus.HistogramVec) *Instrumented {
	return &Instrumented{
		next:     next,
		backend:  backend,
		duration: duration,
		tracer:   otel.Tracer("toko-cart/store"),
	}
}

// Get implements cart.Store.
func (s *Instrumented) Get(ctx context.Context, key string) (content *cart.Content, err error) {
	ctx, done := s.observe(ctx, "get", key)
	defer func() { done(err) }()
	return s.next.Get(ctx, key)
}

// Put implements cart.Store.
func (s *Instrumented) Put(ctx context.Context, key string, content *cart.Content) (err error) {
	ctx, done := s.observe(ctx, "put", key)
	defer func() { done(err) }()
	return s.next.Put(ctx, key, content)
}

// Remove implements cart.Store.
func (s *Instrumented) Remove(ctx context.Context, key string) (err error) {
	ctx, done := s.observe(ctx, "remove", key)
	defer func() { done(err) }()
	return s.next.Remove(ctx, key)
}

func (s *Instrumented) observe(ctx context.Context, op, key string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "cart.store."+op, trace.WithAttributes(
		attribute.String("cart.store.backend", s.backend),
		attribute.String("cart.key", key),
	))
	start := time.Now()
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if s.duration != nil {
			s.duration.WithLabelValues(s.backend, op, result).Observe(float64(time.Since(start)) / float64(time.Millisecond))
		}
		span.End()
	}
}
