// Package kafka publishes resolved corridor snapshots to a sink topic for
// downstream consumers (dashboards, archival). Publishing is optional and
// feature-flagged; the HTTP response never waits on a broker.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/road-weather-service/internal/corridor"
	"github.com/couchcryptid/road-weather-service/internal/domain"
	"github.com/couchcryptid/road-weather-service/internal/observability"
)

// Snapshot is the published record: the resolution plus its instant.
type Snapshot struct {
	ResolvedAt time.Time            `json:"resolvedAt"`
	Resolution *corridor.Resolution `json:"resolution"`
}

// Publisher produces corridor snapshots to a Kafka topic.
type Publisher struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a producer for the sink topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// Publish serializes and writes one snapshot. The message key is the
// resolution instant so log-compacted topics keep the latest snapshot.
func (p *Publisher) Publish(ctx context.Context, snap Snapshot) error {
	msg, err := serializeToMessage(snap)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish corridor snapshot: %w", err)
	}
	p.metrics.SnapshotsPublished.Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Resolver matches the corridor service surface the HTTP API consumes.
type Resolver interface {
	ObservationWindow() domain.TimeWindow
	Resolve(ctx context.Context, r domain.Route, w domain.TimeWindow) (*corridor.Resolution, error)
}

type snapshotPublisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// PublishingResolver decorates a Resolver so every successful resolution is
// also published as a snapshot. Publishing happens off the request path; a
// broker outage costs a warning, not a response.
type PublishingResolver struct {
	inner     Resolver
	publisher snapshotPublisher
	logger    *slog.Logger
}

// NewPublishingResolver wraps inner with snapshot publishing.
func NewPublishingResolver(inner Resolver, publisher snapshotPublisher, logger *slog.Logger) *PublishingResolver {
	return &PublishingResolver{inner: inner, publisher: publisher, logger: logger}
}

// ObservationWindow delegates to the wrapped resolver.
func (r *PublishingResolver) ObservationWindow() domain.TimeWindow {
	return r.inner.ObservationWindow()
}

// Resolve delegates to the wrapped resolver and publishes the result
// asynchronously.
func (r *PublishingResolver) Resolve(ctx context.Context, route domain.Route, window domain.TimeWindow) (*corridor.Resolution, error) {
	res, err := r.inner.Resolve(ctx, route, window)
	if err != nil {
		return nil, err
	}

	snap := Snapshot{ResolvedAt: time.Now().UTC(), Resolution: res}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.publisher.Publish(pctx, snap); err != nil {
			r.logger.Warn("snapshot publish failed", "error", err)
		}
	}()

	return res, nil
}

// serializeToMessage marshals a Snapshot into a Kafka message.
func serializeToMessage(snap Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize corridor snapshot: %w", err)
	}
	hazardCount := 0
	if snap.Resolution != nil && len(snap.Resolution.Hazards) > 0 {
		hazardCount = len(snap.Resolution.Hazards) - 1 // minus the header line
	}
	return kafkago.Message{
		Key:   []byte(snap.ResolvedAt.UTC().Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "resolved_at", Value: []byte(snap.ResolvedAt.UTC().Format(time.RFC3339))},
			{Key: "hazard_count", Value: []byte(strconv.Itoa(hazardCount))},
		},
	}, nil
}
