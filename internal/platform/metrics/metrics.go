package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	UsersCreated        prometheus.Counter
	SubmissionsReceived prometheus.Counter
	ScopedQueries       *prometheus.CounterVec
	OwnershipDenials    *prometheus.CounterVec
	ConnectorPushes     *prometheus.CounterVec
	AuditEventsEmitted  prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gather_users_created_total",
			Help: "Total number of users created in the system",
		}),
		SubmissionsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gather_submissions_received_total",
			Help: "Total number of collected records received",
		}),
		ScopedQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gather_scoped_queries_total",
			Help: "Total number of reads issued through scoped repositories",
		}, []string{"entity"}),
		OwnershipDenials: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gather_ownership_denials_total",
			Help: "Total number of operations rejected by ownership scoping",
		}, []string{"entity", "operation"}),
		ConnectorPushes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gather_connector_pushes_total",
			Help: "Total number of record batches pushed to external systems",
		}, []string{"connector", "status"}),
		AuditEventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gather_audit_events_emitted_total",
			Help: "Total number of audit events handed to the publisher",
		}),
	}
}

// IncrementUsersCreated increments the users created counter by 1
func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

// IncrementSubmissionsReceived increments the submissions counter by 1
func (m *Metrics) IncrementSubmissionsReceived() {
	m.SubmissionsReceived.Inc()
}

// IncrementAuditEventsEmitted counts one audit event handed off for delivery.
func (m *Metrics) IncrementAuditEventsEmitted() {
	m.AuditEventsEmitted.Inc()
}

// RecordConnectorPush records one push attempt outcome per connector type.
func (m *Metrics) RecordConnectorPush(connector, status string) {
	m.ConnectorPushes.WithLabelValues(connector, status).Inc()
}

// Scoped adapts the shared metrics to the repository layer's counter
// interface.
func (m *Metrics) Scoped() *ScopedMetrics {
	return &ScopedMetrics{metrics: m}
}

// ScopedMetrics implements the scoped repository metrics contract.
type ScopedMetrics struct {
	metrics *Metrics
}

func (s *ScopedMetrics) QueryIssued(entity string) {
	s.metrics.ScopedQueries.WithLabelValues(entity).Inc()
}

func (s *ScopedMetrics) OwnershipDenied(entity, operation string) {
	s.metrics.OwnershipDenials.WithLabelValues(entity, operation).Inc()
}
