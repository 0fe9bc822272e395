package licensex

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bionicotaku/lingo-utils-licensex"

const (
	metricIssued        = "licensex.issued"
	metricVerifications = "licensex.verifications"
)

type instruments struct {
	issued   metric.Int64Counter
	verified metric.Int64Counter
}

func newInstruments(mp metric.MeterProvider) (*instruments, error) {
	meter := mp.Meter(instrumentationName)
	issued, err := meter.Int64Counter(metricIssued,
		metric.WithDescription("Licenses issued"),
		metric.WithUnit("{license}"),
	)
	if err != nil {
		return nil, newError(ErrCodeInvalidConfig, fmt.Errorf("create %s counter: %w", metricIssued, err))
	}
	verified, err := meter.Int64Counter(metricVerifications,
		metric.WithDescription("License verifications by outcome"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, newError(ErrCodeInvalidConfig, fmt.Errorf("create %s counter: %w", metricVerifications, err))
	}
	return &instruments{issued: issued, verified: verified}, nil
}

func (m *instruments) recordIssue(ctx context.Context, format Format, expires bool) {
	m.issued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", string(format)),
		attribute.Bool("expires", expires),
	))
}

func (m *instruments) recordVerify(ctx context.Context, r Result) {
	m.verified.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", r.Reason.label()),
		attribute.Bool("time_valid", r.Valid && r.TimeValid),
	))
}
