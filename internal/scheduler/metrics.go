package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var pendingJobs = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "comments_auto_reply_pending_jobs",
	Help: "Number of auto replies waiting for their delay to pass",
})

var jobOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_auto_reply_job_count",
	Help: "Number of finished auto reply jobs, by final state",
}, []string{"state"})
