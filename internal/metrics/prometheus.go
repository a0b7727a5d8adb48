package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type prometheusObserver struct {
	onlineGauge   prometheus.Gauge
	pushCounter   prometheus.Counter
	attempts      *prometheus.CounterVec
	tickDuration  *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
	enqueuedTotal *prometheus.CounterVec
}

var (
	onlineGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assignauth_stream_clients",
		Help: "Number of connected dispatch stream clients",
	})
	pushCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assignauth_stream_push_total",
		Help: "Total number of tick results pushed to stream clients",
	})
	attempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assignauth_dispatch_attempts_total",
		Help: "Channel send attempts by channel and outcome",
	}, []string{"channel", "outcome"})
	tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assignauth_dispatch_tick_seconds",
		Help:    "Duration of dispatch ticks",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"aborted"})
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assignauth_queue_depth",
		Help: "Pending messages after the last tick or broadcast",
	})
	enqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assignauth_broadcast_enqueued_total",
		Help: "Messages enqueued by age-group broadcasts",
	}, []string{"bracket"})
)

func NewPrometheusObserver() Observer {
	return &prometheusObserver{
		onlineGauge:   onlineGauge,
		pushCounter:   pushCounter,
		attempts:      attempts,
		tickDuration:  tickDuration,
		queueDepth:    queueDepth,
		enqueuedTotal: enqueuedTotal,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusObserver) IncOnline() {
	p.onlineGauge.Inc()
}
func (p *prometheusObserver) DecOnline() {
	p.onlineGauge.Dec()
}
func (p *prometheusObserver) RecordPush() {
	p.pushCounter.Inc()
}

func (p *prometheusObserver) ObserveAttempt(channel, outcome string) {
	p.attempts.WithLabelValues(channel, outcome).Inc()
}

func (p *prometheusObserver) ObserveTick(d time.Duration, aborted bool) {
	p.tickDuration.WithLabelValues(strconv.FormatBool(aborted)).Observe(d.Seconds())
}

func (p *prometheusObserver) SetQueueDepth(n int64) {
	p.queueDepth.Set(float64(n))
}

func (p *prometheusObserver) AddEnqueued(bracket int, n int) {
	p.enqueuedTotal.WithLabelValues(strconv.Itoa(bracket)).Add(float64(n))
}
