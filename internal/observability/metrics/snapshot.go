package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// LatencyBucket is one cumulative histogram bucket of upstream latency.
type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// UpstreamSnapshot summarizes ECW round-trip latency for the ops endpoint.
type UpstreamSnapshot struct {
	Total   int64           `json:"total"`
	P90Ms   float64         `json:"p90_ms"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets"`
}

// SnapshotUpstream gathers ecwbridge_upstream_latency_seconds from the
// registry and reduces it across all ops.
func SnapshotUpstream(g prometheus.Gatherer) (*UpstreamSnapshot, error) {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("metrics: gather failed: %w", err)
	}

	var family *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "ecwbridge_upstream_latency_seconds" {
			family = f
			break
		}
	}

	snap := &UpstreamSnapshot{}
	if family == nil {
		return snap, nil
	}

	// Merge histograms across the op label.
	merged := map[float64]int64{}
	for _, metric := range family.GetMetric() {
		h := metric.GetHistogram()
		if h == nil {
			continue
		}
		snap.Total += int64(h.GetSampleCount())
		for _, b := range h.GetBucket() {
			merged[b.GetUpperBound()] += int64(b.GetCumulativeCount())
		}
	}

	bounds := make([]float64, 0, len(merged))
	for le := range merged {
		bounds = append(bounds, le)
	}
	sort.Float64s(bounds)
	for _, le := range bounds {
		b := LatencyBucket{LeSeconds: le, Count: merged[le]}
		if math.IsInf(le, 1) {
			b.Label = "+Inf"
		}
		snap.Buckets = append(snap.Buckets, b)
	}

	snap.P90Ms = percentileMs(bounds, merged, snap.Total, 0.90)
	snap.P95Ms = percentileMs(bounds, merged, snap.Total, 0.95)
	return snap, nil
}

func percentileMs(bounds []float64, merged map[float64]int64, total int64, q float64) float64 {
	if total == 0 {
		return 0
	}
	rank := int64(math.Ceil(q * float64(total)))
	for _, le := range bounds {
		if merged[le] >= rank {
			if math.IsInf(le, 1) {
				return 0
			}
			return le * 1000
		}
	}
	return 0
}
