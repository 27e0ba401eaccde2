// Package metricspush forwards the invoicer's own Prometheus series to a
// remote collector on an interval.
//
// Sessions live in process memory, so every pushed series carries the node id:
// invoicer_sessions_active from two replicas must not overwrite each other.
package metricspush

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/invoicer/internal/config"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

const (
	ExporterRemoteWrite = "prometheus_remote_write"
	ExporterPushgateway = "prometheus_pushgateway"

	// Only series registered by the invoicer are pushed; runtime and
	// driver metrics stay on the local /metrics endpoint.
	metricPrefix = "invoicer_"
	nodeLabel    = "node"

	defaultPushTimeout = 5 * time.Second
)

// Pusher sends one snapshot of a gatherer to a collector.
type Pusher interface {
	Push(ctx context.Context, gatherer prometheus.Gatherer) error
}

// NewPusher builds a pusher from config. Misconfiguration is logged and
// disables pushing rather than failing startup.
func NewPusher(cfg config.Config, logger *zap.Logger) Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	exporter := strings.ToLower(strings.TrimSpace(cfg.Push.Exporter))
	if exporter == "" {
		return nil
	}
	logger = logger.Named("metrics.push")

	endpoint := strings.TrimSpace(cfg.Push.Endpoint)
	node := strconv.FormatInt(cfg.NodeID, 10)

	switch {
	case endpoint == "":
		logger.Warn("metrics push disabled", zap.String("reason", "endpoint is required"))
	case exporter == ExporterRemoteWrite:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			logger.Warn("metrics push disabled", zap.Error(err))
			return nil
		}
		return NewRemoteWritePusher(endpoint, cfg.Push.AuthToken, node)
	case exporter == ExporterPushgateway:
		return NewPushgatewayPusher(endpoint, cfg.AppName, node)
	default:
		logger.Warn("metrics push disabled", zap.String("exporter", exporter))
	}
	return nil
}

// invoicerFamilies gathers and keeps the invoicer_* families.
func invoicerFamilies(gatherer prometheus.Gatherer) ([]*dto.MetricFamily, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(families, func(f *dto.MetricFamily) bool {
		return !strings.HasPrefix(f.GetName(), metricPrefix)
	}), nil
}

// RemoteWritePusher sends metrics to a Prometheus remote_write endpoint.
type RemoteWritePusher struct {
	endpoint  string
	authToken string
	node      string
	client    *http.Client
}

func NewRemoteWritePusher(endpoint, authToken, node string) *RemoteWritePusher {
	return &RemoteWritePusher{
		endpoint:  endpoint,
		authToken: strings.TrimSpace(authToken),
		node:      strings.TrimSpace(node),
		client:    &http.Client{Timeout: defaultPushTimeout},
	}
}

// Push sends the invoicer series as one snappy-compressed WriteRequest.
func (p *RemoteWritePusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	families, err := invoicerFamilies(gatherer)
	if err != nil {
		return err
	}
	series := buildRemoteWriteSeries(families, p.node, time.Now().UnixMilli())
	if len(series) == 0 {
		return nil
	}

	payload, err := proto.Marshal(protoadapt.MessageV2Of(&prompb.WriteRequest{Timeseries: series}))
	if err != nil {
		return fmt.Errorf("encode write request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(snappy.Encode(nil, payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	req.Header.Set("Content-Encoding", "snappy")
	req.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if p.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.authToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("remote write returned %s", resp.Status)
	}
	return nil
}

// PushgatewayPusher replaces this node's group on a Prometheus Pushgateway.
type PushgatewayPusher struct {
	endpoint string
	job      string
	node     string
}

func NewPushgatewayPusher(endpoint, job, node string) *PushgatewayPusher {
	return &PushgatewayPusher{
		endpoint: strings.TrimSpace(endpoint),
		job:      strings.TrimSpace(job),
		node:     strings.TrimSpace(node),
	}
}

func (p *PushgatewayPusher) Push(ctx context.Context, gatherer prometheus.Gatherer) error {
	if p.job == "" {
		return errors.New("pushgateway job is required")
	}
	filtered := prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		return invoicerFamilies(gatherer)
	})

	pusher := push.New(p.endpoint, p.job).Gatherer(filtered)
	if p.node != "" {
		pusher = pusher.Grouping(nodeLabel, p.node)
	}
	return pusher.PushContext(ctx)
}

// buildRemoteWriteSeries flattens counters and gauges into one sample each,
// and histograms into their _count and _sum series. Buckets are not sent;
// the collector only charts intent and export rates and mean latency.
func buildRemoteWriteSeries(families []*dto.MetricFamily, node string, timestampMs int64) []prompb.TimeSeries {
	var series []prompb.TimeSeries
	add := func(name string, m *dto.Metric, value float64) {
		labels := []prompb.Label{{Name: "__name__", Value: name}}
		for _, l := range m.GetLabel() {
			labels = append(labels, prompb.Label{Name: l.GetName(), Value: l.GetValue()})
		}
		if node != "" {
			labels = append(labels, prompb.Label{Name: nodeLabel, Value: node})
		}
		slices.SortFunc(labels, func(a, b prompb.Label) int { return strings.Compare(a.Name, b.Name) })
		series = append(series, prompb.TimeSeries{
			Labels:  labels,
			Samples: []prompb.Sample{{Value: value, Timestamp: timestampMs}},
		})
	}

	for _, family := range families {
		name := family.GetName()
		for _, m := range family.GetMetric() {
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				add(name, m, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				add(name, m, m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				add(name+"_count", m, float64(m.GetHistogram().GetSampleCount()))
				add(name+"_sum", m, m.GetHistogram().GetSampleSum())
			}
		}
	}
	return series
}
