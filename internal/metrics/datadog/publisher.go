// Package datadog provides a DataDog StatsD metrics publisher.
package datadog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/LongNgn204/studykit/internal/config"
	"github.com/LongNgn204/studykit/internal/metrics"
)

// Publisher implements metrics.Publisher using the DataDog StatsD client.
type Publisher struct {
	client   *statsd.Client
	logger   *slog.Logger
	baseTags []string
}

// NewPublisher creates a DataDog publisher from config. When DataDog is
// disabled a no-op publisher is returned instead.
func NewPublisher(cfg *config.DataDogConfig, logger *slog.Logger) (metrics.Publisher, error) {
	if !cfg.Enabled {
		return metrics.NewNoOpPublisher(), nil
	}

	if logger == nil {
		logger = slog.Default()
	}

	addr := fmt.Sprintf("%s:%d", cfg.AgentHost, cfg.Port)

	client, err := statsd.New(addr,
		statsd.WithNamespace(cfg.Prefix+"."),
		statsd.WithTags(cfg.Tags),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create statsd client: %w", err)
	}

	logger.Info("DataDog publisher initialized", "address", addr, "prefix", cfg.Prefix)

	return &Publisher{
		client:   client,
		baseTags: cfg.Tags,
		logger:   logger.With("component", "datadog"),
	}, nil
}

func (p *Publisher) Gauge(name string, value float64, tags ...string) {
	if err := p.client.Gauge(name, value, p.mergeTags(tags), 1); err != nil {
		p.logger.Debug("failed to send gauge metric", "name", name, "error", err)
	}
}

func (p *Publisher) Incr(name string, tags ...string) {
	if err := p.client.Incr(name, p.mergeTags(tags), 1); err != nil {
		p.logger.Debug("failed to send incr metric", "name", name, "error", err)
	}
}

func (p *Publisher) Count(name string, value int64, tags ...string) {
	if err := p.client.Count(name, value, p.mergeTags(tags), 1); err != nil {
		p.logger.Debug("failed to send count metric", "name", name, "error", err)
	}
}

func (p *Publisher) Histogram(name string, value float64, tags ...string) {
	if err := p.client.Histogram(name, value, p.mergeTags(tags), 1); err != nil {
		p.logger.Debug("failed to send histogram metric", "name", name, "error", err)
	}
}

func (p *Publisher) Timing(name string, duration time.Duration, tags ...string) {
	if err := p.client.Timing(name, duration, p.mergeTags(tags), 1); err != nil {
		p.logger.Debug("failed to send timing metric", "name", name, "error", err)
	}
}

func (p *Publisher) Event(title, text, alertType string, tags ...string) {
	event := &statsd.Event{
		Title:     title,
		Text:      text,
		AlertType: statsd.EventAlertType(alertType),
		Tags:      p.mergeTags(tags),
	}
	if err := p.client.Event(event); err != nil {
		p.logger.Debug("failed to send event", "title", title, "error", err)
	}
}

// Close flushes buffered metrics and closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func (p *Publisher) mergeTags(tags []string) []string {
	if len(tags) == 0 {
		return p.baseTags
	}
	if len(p.baseTags) == 0 {
		return tags
	}
	merged := make([]string, 0, len(p.baseTags)+len(tags))
	merged = append(merged, p.baseTags...)
	return append(merged, tags...)
}

var _ metrics.Publisher = (*Publisher)(nil)
