// Package metrics exposes chat and HTTP counters in Prometheus format.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns every collector the server exports.
type Registry struct {
	reg *prometheus.Registry

	messagesSent     prometheus.Counter
	messagesRejected *prometheus.CounterVec
	conversations    *prometheus.CounterVec
	receipts         prometheus.Counter
	markReadFailures prometheus.Counter
	openSessions     prometheus.Gauge
	feedDrops        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_messages_sent_total",
			Help: "Chat messages persisted.",
		}),
		messagesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_messages_rejected_total",
			Help: "Chat sends refused, by reason.",
		}, []string{"reason"}),
		conversations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_conversations_resolved_total",
			Help: "Conversation resolutions, split by whether a row was created.",
		}, []string{"created"}),
		receipts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_read_receipts_total",
			Help: "Messages flipped to read.",
		}),
		markReadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lostfound_mark_read_failures_total",
			Help: "Mark-read calls that failed.",
		}),
		openSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lostfound_chat_sessions_open",
			Help: "Chat sessions currently open.",
		}),
		feedDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_feed_subscribers_dropped_total",
			Help: "Feed subscribers terminated for falling behind.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lostfound_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lostfound_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.messagesSent, r.messagesRejected, r.conversations, r.receipts,
		r.markReadFailures, r.openSessions, r.feedDrops,
		r.httpRequests, r.httpDuration,
	)
	return r
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) MessageSent() { r.messagesSent.Inc() }

func (r *Registry) MessageRejected(reason string) { r.messagesRejected.WithLabelValues(reason).Inc() }

func (r *Registry) ConversationResolved(created bool) {
	r.conversations.WithLabelValues(strconv.FormatBool(created)).Inc()
}

func (r *Registry) ReceiptsPropagated(n int) { r.receipts.Add(float64(n)) }

func (r *Registry) MarkReadFailed() { r.markReadFailures.Inc() }

func (r *Registry) SessionOpened() { r.openSessions.Inc() }

func (r *Registry) SessionClosed() { r.openSessions.Dec() }

// FeedDropped is installed as the hub's drop hook. Topics are reduced to
// their prefix to keep label cardinality bounded.
func (r *Registry) FeedDropped(topic string) {
	kind := topic
	for i := 0; i < len(topic); i++ {
		if topic[i] == ':' {
			kind = topic[:i]
			break
		}
	}
	r.feedDrops.WithLabelValues(kind).Inc()
}

// Middleware records request counts and latency labelled by the matched
// mux route template.
func (r *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)

		route := "unmatched"
		if cur := mux.CurrentRoute(req); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		r.httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(sw.status)).Inc()
		r.httpDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack passes through to the underlying writer for websocket upgrades.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
