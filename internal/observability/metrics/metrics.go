package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	quotesGenerated  metric.Int64Counter
	snapshotsCreated metric.Int64Counter
	ledgerPostings   metric.Int64Counter
	rentalsCreated   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "diveops"
	}
	meter := provider.Meter(name)

	quotesGenerated, err := meter.Int64Counter("diveops_quotes_generated_total")
	if err != nil {
		return nil, err
	}
	snapshotsCreated, err := meter.Int64Counter("diveops_pricing_snapshots_total")
	if err != nil {
		return nil, err
	}
	ledgerPostings, err := meter.Int64Counter("diveops_ledger_postings_total")
	if err != nil {
		return nil, err
	}
	rentalsCreated, err := meter.Int64Counter("diveops_equipment_rentals_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		quotesGenerated:  quotesGenerated,
		snapshotsCreated: snapshotsCreated,
		ledgerPostings:   ledgerPostings,
		rentalsCreated:   rentalsCreated,
	}, nil
}

// RecordQuote counts one generated quote.
func (m *Metrics) RecordQuote(ctx context.Context, gasType string) {
	if m == nil || m.quotesGenerated == nil {
		return
	}
	m.quotesGenerated.Add(ctx, 1, metric.WithAttributes(attribute.String("gas_type", gasType)))
}

// RecordSnapshot counts one pricing snapshot, tagged by mode.
func (m *Metrics) RecordSnapshot(ctx context.Context, forced bool) {
	if m == nil || m.snapshotsCreated == nil {
		return
	}
	m.snapshotsCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("forced", forced)))
}

// RecordLedgerPosting counts one posted ledger transaction.
func (m *Metrics) RecordLedgerPosting(ctx context.Context) {
	if m == nil || m.ledgerPostings == nil {
		return
	}
	m.ledgerPostings.Add(ctx, 1)
}

// RecordRental counts one equipment rental line.
func (m *Metrics) RecordRental(ctx context.Context) {
	if m == nil || m.rentalsCreated == nil {
		return
	}
	m.rentalsCreated.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp metrics protocol %q", protocol)
	}
}
