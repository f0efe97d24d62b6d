package tracer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	raysTraced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polaris",
		Subsystem: "tracer",
		Name:      "rays_total",
		Help:      "Number of traced rays.",
	}, []string{"tracer"})

	rayHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polaris",
		Subsystem: "tracer",
		Name:      "hits_total",
		Help:      "Number of traced rays that hit a primitive.",
	}, []string{"tracer"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "polaris",
		Subsystem: "tracer",
		Name:      "batch_seconds",
		Help:      "Time spent tracing ray batches.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"tracer"})
)

func instrumentBatch(tracerId string, stats BatchStats) {
	raysTraced.WithLabelValues(tracerId).Add(float64(stats.Rays))
	rayHits.WithLabelValues(tracerId).Add(float64(stats.Hits))
	batchDuration.WithLabelValues(tracerId).Observe(stats.Elapsed.Seconds())
}
