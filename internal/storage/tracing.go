package storage

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "filegate/storage"

type tracedStore struct {
	next   ObjectStore
	tracer trace.Tracer
}

// WithTracing wraps store so every operation runs inside a client span.
// The tracer is taken from the global provider installed by tracing.Init.
func WithTracing(store ObjectStore) ObjectStore {
	return &tracedStore{next: store, tracer: otel.Tracer(tracerName)}
}

func (t *tracedStore) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
}

func finish(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (t *tracedStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	ctx, span := t.start(ctx, "put",
		attribute.String("object.key", key),
		attribute.Int64("object.size", size),
		attribute.String("object.content_type", contentType),
	)
	err := t.next.Put(ctx, key, body, size, contentType)
	finish(span, err)
	return err
}

func (t *tracedStore) Get(ctx context.Context, key string) (*Object, error) {
	ctx, span := t.start(ctx, "get", attribute.String("object.key", key))
	obj, err := t.next.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		span.SetAttributes(attribute.Bool("object.missing", true))
	}
	finish(span, err)
	return obj, err
}

func (t *tracedStore) List(ctx context.Context, continuationToken string, maxKeys int) (Page, error) {
	ctx, span := t.start(ctx, "list",
		attribute.Bool("list.continued", continuationToken != ""),
		attribute.Int("list.max_keys", maxKeys),
	)
	page, err := t.next.List(ctx, continuationToken, maxKeys)
	if err == nil {
		span.SetAttributes(
			attribute.Int("list.objects", len(page.Objects)),
			attribute.Bool("list.truncated", page.Truncated),
		)
	}
	finish(span, err)
	return page, err
}

func (t *tracedStore) Delete(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "delete", attribute.String("object.key", key))
	err := t.next.Delete(ctx, key)
	finish(span, err)
	return err
}

func (t *tracedStore) Ping(ctx context.Context) error {
	ctx, span := t.start(ctx, "ping")
	err := t.next.Ping(ctx)
	finish(span, err)
	return err
}
