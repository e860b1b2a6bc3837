package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCounters(t *testing.T) {
	r := New()

	r.MessageSent()
	r.MessageSent()
	r.MessageRejected("validation")
	r.ConversationResolved(true)
	r.ReceiptsPropagated(3)
	r.SessionOpened()
	r.SessionOpened()
	r.SessionClosed()
	r.FeedDropped("conversation:abc")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.messagesSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.messagesRejected.WithLabelValues("validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.conversations.WithLabelValues("true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.receipts))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.openSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.feedDrops.WithLabelValues("conversation")))
}

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	r := New()
	router := mux.NewRouter()
	router.Use(r.Middleware)
	router.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/items/{id}", "GET", "404")))

	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "lostfound_http_requests_total")
}
