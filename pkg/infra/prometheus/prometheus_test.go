package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(DispatchTotal.WithLabelValues("skipped"))
	DispatchTotal.WithLabelValues("skipped").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DispatchTotal.WithLabelValues("skipped")))

	families, err := Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "trailtrigger_dispatch_total")
}

func TestObserveSince(t *testing.T) {
	ObserveSince(StageFetch, time.Now().Add(-20*time.Millisecond))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(StageDuration), 1)
}

func TestPush(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	RecordsScanned.Inc()
	require.NoError(t, Push(context.Background(), srv.URL, "trailtrigger-notifier"))
	assert.True(t, strings.HasSuffix(gotPath, "/job/trailtrigger-notifier"))
}
