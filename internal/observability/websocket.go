package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebSocketBackpressureDrops counts outbound frames dropped for slow or closed clients.
var WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "inkwell_websocket_backpressure_drops_total",
	Help: "Outbound websocket frames dropped, by reason",
}, []string{"reason"})
