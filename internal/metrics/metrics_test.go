package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/edudesk/gamehost/internal/minigame"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	for _, e := range []minigame.Event{
		{Type: minigame.EventOpened},
		{Type: minigame.EventOpened},
		{Type: minigame.EventRejected, Reason: minigame.ReasonOrigin},
		{Type: minigame.EventRejected, Reason: minigame.ReasonOrigin},
		{Type: minigame.EventRejected, Reason: minigame.ReasonSuspicious},
		{Type: minigame.EventEnded},
		{Type: minigame.EventSubmitFailed},
		{Type: minigame.EventClosed},
	} {
		m.Observe(e)
	}
	m.BundleLoaded(nil)
	m.BundleLoaded(errors.New("missing"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenViews))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejected.WithLabelValues(string(minigame.ReasonOrigin))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejected.WithLabelValues(string(minigame.ReasonSuspicious))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ended))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Submissions.WithLabelValues("submitted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BundleLoads.WithLabelValues("error")))
}
