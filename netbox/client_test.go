package netbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cimnine/netbox-forager/logger"
	"github.com/cimnine/netbox-forager/metrics"
	"github.com/cimnine/netbox-forager/netbox/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) (*Client, logger.Logs, *metrics.Metrics) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &NetboxConfig{}
	config.API.URL = server.URL + "/api/"
	config.API.Token = "0123456789abcdef"
	config.RawTimeout = "50ms"
	config.RawSleep = "1ms"
	config.MaxRetries = &retries

	log, logs := logger.NewObserverLogger("debug")
	m := metrics.NewMetrics(prometheus.NewRegistry())

	return NewClient(config, log, m), logs, m
}

func warnings(logs logger.Logs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

func TestFetch(t *testing.T) {
	var header string
	client, logs, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
		assert.Equal(t, "/api/ipam/prefixes/", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count": 2, "next": null, "previous": null, "results": [
			{"id": 1, "url": "http://nb/api/ipam/prefixes/1/", "prefix": "10.0.0.0/8"},
			{"id": 2, "url": "http://nb/api/ipam/prefixes/2/", "prefix": "10.1.0.0/16"}]}`)
	}, 3)

	page, err := client.Fetch(context.Background(), client.Resolve(models.Prefixes)+"?limit=10&offset=0")
	require.NoError(t, err)
	require.Equal(t, "Token 0123456789abcdef", header)
	require.Equal(t, 2, page.Count)
	require.Len(t, page.Results, 2)
	require.Equal(t, 2, page.Results[1].ID())
	require.Equal(t, "10.1.0.0/16", page.Results[1].Str("prefix"))
	require.Empty(t, page.Status)
	require.Equal(t, 0, warnings(logs))
}

func TestFetchFilterNotFound(t *testing.T) {
	var calls int32
	client, logs, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"tag": ["Select a valid choice. nope is not one of the available choices."]}`)
	}, 3)

	page, err := client.Fetch(context.Background(), client.Resolve(models.Devices)+"?tag=nope")
	require.NoError(t, err)
	require.Empty(t, page.Results)
	require.Equal(t, "400 Bad Request", page.Status)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Equal(t, 1, warnings(logs))
}

func TestFetchInvalidToken(t *testing.T) {
	var calls int32
	client, _, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail": "Invalid token"}`)
	}, 3)

	_, err := client.Fetch(context.Background(), client.Resolve(models.Devices))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCredentials))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.InDelta(t, 0, testutil.ToFloat64(m.RetriesTotal), 0)

	var responseErr *ResponseError
	require.True(t, errors.As(err, &responseErr))
	require.Equal(t, http.StatusForbidden, responseErr.StatusCode)
}

func TestFetchForbiddenWithoutCredentialsMessage(t *testing.T) {
	client, logs, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"detail": "You do not have permission to perform this action."}`)
	}, 3)

	page, err := client.Fetch(context.Background(), client.Resolve(models.Devices))
	require.NoError(t, err)
	require.Empty(t, page.Results)
	require.Equal(t, 1, warnings(logs))
}

func TestFetchServerError(t *testing.T) {
	var calls int32
	client, _, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `<h1>Server Error (500)</h1>`)
	}, 2)

	_, err := client.Fetch(context.Background(), client.Resolve(models.Devices))
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrServer))
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.InDelta(t, 2, testutil.ToFloat64(m.RetriesTotal), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("500")), 0)
}

func TestFetchRecoversAfterServerError(t *testing.T) {
	var calls int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"count": 0, "results": []}`)
	}, 2)

	page, err := client.Fetch(context.Background(), client.Resolve(models.Devices))
	require.NoError(t, err)
	require.Empty(t, page.Results)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchTimeout(t *testing.T) {
	var calls int32
	client, logs, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, 1)

	page, err := client.Fetch(context.Background(), client.Resolve(models.Devices))
	require.NoError(t, err)
	require.Empty(t, page.Results)
	require.Equal(t, StatusGatewayTimeout, page.Status)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	require.Equal(t, 1, warnings(logs))
}

func TestFetchUndecodable(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}, 0)

	_, err := client.Fetch(context.Background(), client.Resolve(models.Devices))
	require.Error(t, err)
}

func TestCount(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"count": 2042, "results": [{"id": 1}]}`)
	}, 0)

	count, err := client.Count(context.Background(), client.Resolve(models.IPAddresses)+"?limit=1")
	require.NoError(t, err)
	require.Equal(t, 2042, count)
}

func TestCountWithoutCount(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": []}`)
	}, 0)

	_, err := client.Count(context.Background(), client.Resolve(models.IPAddresses)+"?limit=1")
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/status/", r.URL.Path)
		fmt.Fprint(w, `{"django-version": "4.2", "netbox-version": "3.7.8"}`)
	}, 0)

	version, err := client.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, "3.7.8", version)
}

func TestCheckNotFound(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}, 0)

	_, err := client.Check(context.Background())
	require.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	config := NetboxConfig{}
	require.Equal(t, DefaultTimeout, config.Timeout())
	require.Equal(t, DefaultSleep, config.Sleep())
	require.Equal(t, DefaultMaxRetries, config.Retries())

	zero := 0
	config = NetboxConfig{RawTimeout: "5s", RawSleep: "bogus", MaxRetries: &zero}
	require.Equal(t, 5*time.Second, config.Timeout())
	require.Equal(t, DefaultSleep, config.Sleep())
	require.Equal(t, 0, config.Retries())
}
