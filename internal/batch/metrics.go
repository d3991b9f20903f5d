package batch

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry           *prometheus.Registry
	imagesTotal        *prometheus.CounterVec
	imageDuration      *prometheus.HistogramVec
	sourceBytesTotal   prometheus.Counter
	outputBytesTotal   prometheus.Counter
	pixelsWrittenTotal prometheus.Counter
	runDuration        prometheus.Gauge
	lastRunTimestamp   prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		imagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "borderflow_images_total",
			Help: "Images handled in the last run by final status.",
		}, []string{"status"}),
		imageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "borderflow_image_duration_seconds",
			Help:    "Time spent reading, transforming and writing one image.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		sourceBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "borderflow_source_bytes_total",
			Help: "Bytes read from input images that were processed.",
		}),
		outputBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "borderflow_output_bytes_total",
			Help: "Bytes of encoded JPEG written.",
		}),
		pixelsWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "borderflow_output_pixels_total",
			Help: "Pixels in all written outputs.",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "borderflow_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "borderflow_last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}

	m.registry.MustRegister(
		m.imagesTotal,
		m.imageDuration,
		m.sourceBytesTotal,
		m.outputBytesTotal,
		m.pixelsWrittenTotal,
		m.runDuration,
		m.lastRunTimestamp,
	)
	return m
}

// WriteMetrics dumps the run's metrics in the node_exporter textfile format.
func (r *Runner) WriteMetrics(path string) error {
	if err := prometheus.WriteToTextfile(path, r.metrics.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
