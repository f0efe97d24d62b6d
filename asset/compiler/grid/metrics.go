package grid

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "polaris",
		Subsystem: "grid",
		Name:      "build_seconds",
		Help:      "Time spent building hierarchical grids.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	droppedRefs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polaris",
		Subsystem: "grid",
		Name:      "dropped_refs_total",
		Help:      "Primitive references dropped because a fine cell was full.",
	})

	saturatedCells = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polaris",
		Subsystem: "grid",
		Name:      "saturated_cells_total",
		Help:      "Coarse cells whose occupancy counter saturated.",
	})

	crowdedCells = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polaris",
		Subsystem: "grid",
		Name:      "crowded_cells_total",
		Help:      "Fine cells filled above the warning occupancy.",
	})
)

func instrumentBuild(elapsed time.Duration, report Report) {
	buildDuration.Observe(elapsed.Seconds())
	droppedRefs.Add(float64(report.DroppedRefs))
	saturatedCells.Add(float64(report.SaturatedCells))
	crowdedCells.Add(float64(report.CrowdedCells))
}
