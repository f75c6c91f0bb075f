package metrics

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/stone-age-io/asset-collector/internal/network"
)

const namespace = "asset_collector"

// RunStats describes one collector run for node_exporter's textfile collector
type RunStats struct {
	Finished       time.Time
	UploadSuccess  bool
	UploadDuration time.Duration
	Monitors       int
	Tiers          network.Tiers
}

// Families converts the run into metric families, in a stable order
func Families(s RunStats) []*dto.MetricFamily {
	success := 0.0
	if s.UploadSuccess {
		success = 1
	}

	return []*dto.MetricFamily{
		gauge("last_run_timestamp_seconds", "Unix time the last collection finished.",
			float64(s.Finished.UnixNano())/1e9),
		gauge("upload_success", "Whether the last upload was accepted with 201 Created.",
			success),
		gauge("upload_duration_seconds", "Time spent uploading the asset record.",
			s.UploadDuration.Seconds()),
		gauge("monitors", "Number of monitors in the uploaded record.",
			float64(s.Monitors)),
		{
			Name: proto.String(namespace + "_addresses"),
			Help: proto.String("IPv4 addresses found per classification tier."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{
				tierMetric("physical", len(s.Tiers.Physical)),
				tierMetric("other", len(s.Tiers.Other)),
				tierMetric("virtual", len(s.Tiers.Virtual)),
			},
		},
	}
}

func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + "_" + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: proto.Float64(value)}},
		},
	}
}

func tierMetric(tier string, n int) *dto.Metric {
	return &dto.Metric{
		Label: []*dto.LabelPair{{Name: proto.String("tier"), Value: proto.String(tier)}},
		Gauge: &dto.Gauge{Value: proto.Float64(float64(n))},
	}
}

// WriteTextfile renders the run in the Prometheus text format and replaces
// path atomically so a scraping node_exporter never sees a partial file.
func WriteTextfile(path string, s RunStats) error {
	var buf bytes.Buffer
	for _, mf := range Families(s) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
