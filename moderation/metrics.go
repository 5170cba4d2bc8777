package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var contentEventsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_content_events_received",
	Help: "Number of content events received on the language-detection topic",
})

var contentEventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_content_events_malformed",
	Help: "Number of content events dropped as unparseable",
})

var languageDetectionFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_language_detection_failed",
	Help: "Number of content events with no usable detected language",
})

var unknownContentKind = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_content_unknown_kind",
	Help: "Number of events or verdicts skipped for an unrecognized content type",
})

var profanityChecksDispatched = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_profanity_checks_dispatched",
	Help: "Number of profanity check requests sent to the moderation service",
})

var verdictsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_verdicts_received",
	Help: "Number of verdict events received on the moderation-verdict topic",
})

var verdictsMalformed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_verdicts_malformed",
	Help: "Number of verdict events dropped as unparseable",
})

var verdictsApplied = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_verdicts_applied",
	Help: "Number of verdicts persisted to a record store",
})

var verdictsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_verdicts_failed",
	Help: "Number of verdicts whose store update failed",
})

var notificationsTriggered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_notifications_triggered",
	Help: "Number of profanity alert notifications triggered",
})

var fanoutTasksQueued = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_fanout_tasks_queued",
	Help: "Number of tasks submitted to the fan-out worker pool",
})

var fanoutTasksProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scrub_fanout_tasks_processed",
	Help: "Number of tasks completed by the fan-out worker pool",
})

var fanoutWorkersActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "scrub_fanout_workers_active",
	Help: "Number of running fan-out workers",
})
