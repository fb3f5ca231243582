package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// AuthEvents counts login, registration and logout attempts by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_auth_events_total",
		Help: "Authentication events by type and outcome",
	}, []string{"event", "outcome"})

	// PostsCreated counts published posts by topic and visibility.
	PostsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_posts_created_total",
		Help: "Total number of posts created",
	}, []string{"topic", "visibility"})

	// MessagesSent counts direct messages stored.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_messages_sent_total",
		Help: "Total number of direct messages sent",
	})

	// FollowEvents counts follow and unfollow operations.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_follow_events_total",
		Help: "Follow graph changes by action",
	}, []string{"action"})

	// CacheRequests counts cache lookups by cache name and result (hit, miss, error).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_requests_total",
		Help: "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	// RateLimitRejections counts requests rejected by a rate limit scope.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_rate_limit_rejections_total",
		Help: "Requests rejected by rate limiting",
	}, []string{"scope"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})
)

const queryStartKey = "inkwell:query_start"

// RegisterQueryMetrics installs gorm callbacks that record query latency.
func RegisterQueryMetrics(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	finish := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			began, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(began).Seconds())
		}
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", start); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", finish("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", start); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", finish("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", start); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", finish("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", start); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", finish("delete")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("metrics:before_raw", start); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("metrics:after_raw", finish("raw"))
}
