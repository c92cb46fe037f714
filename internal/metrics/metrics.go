package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	slotToggled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "semainier",
			Name:      "slot_toggled_total",
			Help:      "Count of availability cells toggled.",
		},
	)

	recapBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semainier",
			Name:      "recap_built_total",
			Help:      "Count of recaps computed by scope.",
		},
		[]string{"scope"},
	)

	exportDone = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semainier",
			Name:      "export_total",
			Help:      "Count of exports produced by kind.",
		},
		[]string{"kind"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semainier",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(slotToggled, recapBuilt, exportDone, httpRequests)
	})
}

func IncSlotToggled() {
	slotToggled.Inc()
}

func IncRecapBuilt(scope string) {
	recapBuilt.WithLabelValues(scope).Inc()
}

func IncExport(kind string) {
	exportDone.WithLabelValues(kind).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
