package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	Submissions        = prometheus.NewCounter(prometheus.CounterOpts{Name: "vidgen_submissions_total", Help: "Video generation submissions accepted"})
	SubmissionFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "vidgen_submission_failures_total", Help: "Video generation submissions that failed"})
	DescribeFallbacks  = prometheus.NewCounter(prometheus.CounterOpts{Name: "vidgen_describe_fallbacks_total", Help: "Submissions that used the deterministic fallback prompt"})
	Polls              = prometheus.NewCounter(prometheus.CounterOpts{Name: "vidgen_polls_total", Help: "Prediction status polls served"})
	PollCacheHits      = prometheus.NewCounter(prometheus.CounterOpts{Name: "vidgen_poll_cache_hits_total", Help: "Polls answered from the stored terminal result"})
	VideosSucceeded    = prometheus.NewCounter(prometheus.CounterOpts{Name: "vidgen_videos_succeeded_total", Help: "Jobs that reached terminal success"})
	VideosFailed       = prometheus.NewCounter(prometheus.CounterOpts{Name: "vidgen_videos_failed_total", Help: "Jobs that reached terminal failure"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			Submissions,
			SubmissionFailures,
			DescribeFallbacks,
			Polls,
			PollCacheHits,
			VideosSucceeded,
			VideosFailed,
		)
	})
	return promhttp.Handler()
}
