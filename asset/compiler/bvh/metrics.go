package bvh

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "polaris",
		Subsystem: "bvh",
		Name:      "build_seconds",
		Help:      "Time spent building BVH trees.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	builtNodes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polaris",
		Subsystem: "bvh",
		Name:      "nodes_total",
		Help:      "Number of BVH nodes built.",
	})

	builtPrimitives = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polaris",
		Subsystem: "bvh",
		Name:      "primitives_total",
		Help:      "Number of primitives partitioned into BVH leafs.",
	})
)

func instrumentBuild(elapsed time.Duration, stats Stats) {
	buildDuration.Observe(elapsed.Seconds())
	builtNodes.Add(float64(stats.Nodes))
	builtPrimitives.Add(float64(stats.TotalPrimitives))
}
