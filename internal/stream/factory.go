package stream

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"procwatch/internal/config"
)

const (
	defaultSampleStreamMethod = "/procwatch.metrics.v1.MetricsService/StreamSamples"
	defaultTableStreamMethod  = "/procwatch.metrics.v1.MetricsService/StreamProcessTables"
)

func NewSinkFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (Sink, error) {
	switch cfg.StreamMode {
	case config.StreamModeNone:
		return NoopSink{}, nil
	case config.StreamModeGRPC:
		return NewGRPCClient(
			cfg.BackendGRPCAddr,
			tlsCfg,
			cfg.BackendToken,
			defaultSampleStreamMethod,
			defaultTableStreamMethod,
			logger,
		), nil
	}
	return nil, fmt.Errorf("unsupported stream mode %q", cfg.StreamMode)
}

// NoopSink discards everything; used when no backend is configured.
type NoopSink struct{}

func (NoopSink) SendSamples(Context, []SampleFrame) error          { return nil }
func (NoopSink) SendProcessTable(Context, ProcessTableFrame) error { return nil }
func (NoopSink) Close(Context) error                               { return nil }
