package observability

import (
	"slices"
	"strings"

	"github.com/smallbiznis/invoicer/internal/config"
)

const defaultServiceName = "invoicer"

var devEnvironments = []string{"dev", "development", "local", "test"}

// Config is the normalized view of config.TelemetryConfig shared by the
// logger, tracer and meter providers.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	t := cfg.Telemetry

	out := Config{
		ServiceName:          strings.TrimSpace(cfg.AppName),
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             strings.ToLower(strings.TrimSpace(t.LogLevel)),
		LogFormat:            strings.ToLower(strings.TrimSpace(t.LogFormat)),
		OtelEnabled:          t.OtelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(t.OtelEndpoint),
		OtelExporterProtocol: strings.ToLower(strings.TrimSpace(t.OtelProtocol)),
		OtelSamplingRatio:    t.SamplingRatio,
	}
	if out.ServiceName == "" {
		out.ServiceName = defaultServiceName
	}
	if out.LogLevel == "" {
		out.LogLevel = "info"
	}
	if out.LogFormat == "" {
		out.LogFormat = "json"
	}
	if out.OtelExporterProtocol == "" {
		out.OtelExporterProtocol = "grpc"
	}
	return out
}

// Debug is true for debug logging or any development environment.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	return slices.Contains(devEnvironments, strings.ToLower(c.Environment))
}
