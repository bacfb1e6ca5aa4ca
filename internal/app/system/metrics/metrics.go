// Package metrics exposes counters for the recorders and the report
// aggregator on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "academyhub"

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	reg         *prometheus.Registry
	attendance  *prometheus.CounterVec
	submissions *prometheus.CounterVec
	approvals   *prometheus.CounterVec
	reports     *prometheus.HistogramVec
}

// New builds the collectors and registers them, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		attendance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_marks_total",
			Help:      "Attendance mark attempts by outcome.",
		}, []string{"outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Task submission attempts by outcome.",
		}, []string{"outcome"}),
		approvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_approvals_total",
			Help:      "Approval toggles by resulting state.",
		}, []string{"state"}),
		reports: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weekly_report_seconds",
			Help:      "Weekly report generation time by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	m.reg.MustRegister(
		m.attendance,
		m.submissions,
		m.approvals,
		m.reports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Attendance counts one MarkAttendance result.
func (m *Metrics) Attendance(err error) {
	if m == nil {
		return
	}
	m.attendance.WithLabelValues(string(outcome.KindOf(err))).Inc()
}

// Submission counts one SubmitTask result.
func (m *Metrics) Submission(err error) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(outcome.KindOf(err))).Inc()
}

// Approval counts one approval toggle.
func (m *Metrics) Approval(approved bool) {
	if m == nil {
		return
	}
	state := "unapproved"
	if approved {
		state = "approved"
	}
	m.approvals.WithLabelValues(state).Inc()
}

// Report records how long one report took.
func (m *Metrics) Report(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(string(outcome.KindOf(err))).Observe(d.Seconds())
}
