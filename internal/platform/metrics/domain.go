package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification provides observability for the verification workflow.
type Verification struct {
	// Status changes by resulting status and the action that caused them
	StatusTransitions *prometheus.CounterVec

	// Submission outcomes: "accepted" or "failed"
	Submissions *prometheus.CounterVec

	// External checker latency
	SubmissionLatency prometheus.Histogram

	// Upload rejections by field and reason ("type" or "size")
	UploadRejections *prometheus.CounterVec
}

// NewVerification registers the verification metrics with reg.
func NewVerification(reg prometheus.Registerer) *Verification {
	f := promauto.With(reg)
	return &Verification{
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "realtyvest_verification_status_transitions_total",
			Help: "Verification status changes by resulting status and action",
		}, []string{"status", "action"}),

		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "realtyvest_verification_submissions_total",
			Help: "Verification submissions by outcome",
		}, []string{"outcome"}),

		SubmissionLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "realtyvest_verification_submission_duration_seconds",
			Help:    "Duration of the external verification check",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}),

		UploadRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "realtyvest_verification_upload_rejections_total",
			Help: "Rejected document uploads by field and reason",
		}, []string{"field", "reason"}),
	}
}

func (m *Verification) IncrementTransition(status, action string) {
	if m != nil {
		m.StatusTransitions.WithLabelValues(status, action).Inc()
	}
}

func (m *Verification) ObserveSubmission(outcome string, d time.Duration) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
		m.SubmissionLatency.Observe(d.Seconds())
	}
}

func (m *Verification) IncrementUploadRejection(field, reason string) {
	if m != nil {
		m.UploadRejections.WithLabelValues(field, reason).Inc()
	}
}

// Investment provides observability for investment placement.
type Investment struct {
	Placed *prometheus.CounterVec
	Denied *prometheus.CounterVec
}

// NewInvestment registers the investment metrics with reg.
func NewInvestment(reg prometheus.Registerer) *Investment {
	f := promauto.With(reg)
	return &Investment{
		Placed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "realtyvest_investments_placed_total",
			Help: "Investments placed by property",
		}, []string{"property"}),
		Denied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "realtyvest_investments_denied_total",
			Help: "Investment attempts denied by reason",
		}, []string{"reason"}),
	}
}

func (m *Investment) IncrementPlaced(propertyID string) {
	if m != nil {
		m.Placed.WithLabelValues(propertyID).Inc()
	}
}

func (m *Investment) IncrementDenied(reason string) {
	if m != nil {
		m.Denied.WithLabelValues(reason).Inc()
	}
}

// Store provides latency of record store backends.
type Store struct {
	OpDuration *prometheus.HistogramVec
}

// NewStore registers the store metrics with reg.
func NewStore(reg prometheus.Registerer) *Store {
	return &Store{
		OpDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "realtyvest_verification_store_op_duration_seconds",
			Help:    "Latency of verification store operations by backend",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"backend", "op"}),
	}
}

func (m *Store) ObserveOp(backend, op string, d time.Duration) {
	if m != nil {
		m.OpDuration.WithLabelValues(backend, op).Observe(d.Seconds())
	}
}
