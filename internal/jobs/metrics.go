package jobs

import "github.com/prometheus/client_golang/prometheus"

// queueDepth tracks the number of jobs waiting (pending, not yet running)
// across every kind, the signal the HTTP edge consults before deciding to
// answer a new upload with 503 back-pressure.
var queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "corpusengine",
	Subsystem: "jobs",
	Name:      "queue_depth",
	Help:      "Number of jobs currently pending in the job fabric.",
})

func init() {
	prometheus.MustRegister(queueDepth)
}

// SetQueueDepth updates the exported queue-depth gauge.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}
