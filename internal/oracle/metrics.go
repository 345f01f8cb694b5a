package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var oracleCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "comments_oracle_call_duration_sec",
	Help: "Duration of language model oracle calls, by operation",
}, []string{"op"})

var oracleCallCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comments_oracle_call_count",
	Help: "Number of language model oracle calls, by operation and outcome",
}, []string{"op", "outcome"})
