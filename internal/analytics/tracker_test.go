// internal/analytics/tracker_test.go
package analytics

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-directory/internal/common/logger"
)

type stubDoer struct {
	status int
	err    error
	last   *http.Request
	body   string
}

func (s *stubDoer) DoWithContext(_ context.Context, req *http.Request) (*http.Response, error) {
	s.last = req
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		s.body = string(raw)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: s.status,
		Status:     http.StatusText(s.status),
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func newTestTracker(doer *stubDoer, enabled bool) *Tracker {
	return NewTracker(doer, "https://collect.example/collect", "UA-12345-1", enabled, logger.NewNoOpLogger())
}

// ==========================================
// Analytics Tracker Tests
// ==========================================

func TestTrackEvent_SendsMeasurementHit(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK}
	tracker := newTestTracker(doer, true)

	tracker.TrackEvent(context.Background(), Event{
		Category: "organisation",
		Action:   "report-incorrect-information",
		Label:    "7",
		Page:     "/api/organisation/7/report",
	})

	require.NotNil(t, doer.last)
	assert.Equal(t, http.MethodPost, doer.last.Method)
	assert.Equal(t, "application/x-www-form-urlencoded", doer.last.Header.Get("Content-Type"))

	form, err := url.ParseQuery(doer.body)
	require.NoError(t, err)
	assert.Equal(t, "1", form.Get("v"))
	assert.Equal(t, "UA-12345-1", form.Get("tid"))
	assert.Equal(t, "SERVICE-DIRECTORY-API", form.Get("cid"))
	assert.Equal(t, "event", form.Get("t"))
	assert.Equal(t, "organisation", form.Get("ec"))
	assert.Equal(t, "report-incorrect-information", form.Get("ea"))
	assert.Equal(t, "7", form.Get("el"))
	assert.Equal(t, "/api/organisation/7/report", form.Get("dp"))
}

func TestTrackEvent_DisabledSendsNothing(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK}
	tracker := newTestTracker(doer, false)

	tracker.TrackEvent(context.Background(), Event{Category: "organisation", Action: "view"})
	assert.Nil(t, doer.last)
}

func TestTrackEvent_TransportErrorIsSwallowed(t *testing.T) {
	doer := &stubDoer{err: stderrors.New("connection refused")}
	tracker := newTestTracker(doer, true)

	// Must not panic or propagate anything.
	tracker.TrackEvent(context.Background(), Event{Category: "organisation", Action: "view"})
}

func TestTrackEvent_CustomClientID(t *testing.T) {
	doer := &stubDoer{status: http.StatusOK}
	tracker := newTestTracker(doer, true)

	tracker.TrackEvent(context.Background(), Event{
		Category: "organisation",
		Action:   "view",
		ClientID: "visitor-42",
	})

	form, err := url.ParseQuery(doer.body)
	require.NoError(t, err)
	assert.Equal(t, "visitor-42", form.Get("cid"))
}
