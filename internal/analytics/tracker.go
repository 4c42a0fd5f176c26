// internal/analytics/tracker.go
package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"service-directory/internal/common/logger"
	"service-directory/internal/common/metrics"
)

// defaultClientID identifies server-originated hits that carry no visitor
// identity of their own.
const defaultClientID = "SERVICE-DIRECTORY-API"

// HTTPDoer issues one HTTP request.
type HTTPDoer interface {
	DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Event is one analytics event hit.
type Event struct {
	Category string
	Action   string
	Label    string
	Page     string
	ClientID string
}

// Tracker reports usage events to the measurement-protocol collect endpoint.
// Tracking is strictly fire and forget: it never fails or delays the request
// being tracked.
type Tracker struct {
	client     HTTPDoer
	collectURL string
	trackingID string
	enabled    bool
	log        logger.Logger
}

func NewTracker(client HTTPDoer, collectURL, trackingID string, enabled bool, log logger.Logger) *Tracker {
	return &Tracker{
		client:     client,
		collectURL: collectURL,
		trackingID: trackingID,
		enabled:    enabled,
		log:        log,
	}
}

// TrackEvent submits one event. Failures are logged and counted, nothing
// more.
func (t *Tracker) TrackEvent(ctx context.Context, event Event) {
	if !t.enabled {
		return
	}

	clientID := event.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}

	form := url.Values{
		"v":   {"1"},
		"tid": {t.trackingID},
		"cid": {clientID},
		"t":   {"event"},
		"ec":  {event.Category},
		"ea":  {event.Action},
	}
	if event.Label != "" {
		form.Set("el", event.Label)
	}
	if event.Page != "" {
		form.Set("dp", event.Page)
	}

	req, err := http.NewRequest(http.MethodPost, t.collectURL, strings.NewReader(form.Encode()))
	if err != nil {
		t.recordFailure(err)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := t.client.DoWithContext(ctx, req)
	if err != nil {
		t.recordFailure(err)
		return
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		t.recordFailure(fmt.Errorf("collect endpoint returned %s", res.Status))
	}
}

func (t *Tracker) recordFailure(err error) {
	t.log.Warn("analytics event dropped", map[string]interface{}{
		"error": err.Error(),
	})
	metrics.NotificationFailuresTotal.WithLabelValues("analytics").Inc()
}
