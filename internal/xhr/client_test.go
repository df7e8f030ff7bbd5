package xhr_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/brizzai/auto-xhr/internal/transport"
	"github.com/brizzai/auto-xhr/internal/transport/transporttest"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type staticAuthorizer map[string]string

func (a staticAuthorizer) Authorize(_ *url.URL, headers map[string]string) error {
	for k, v := range a {
		headers[k] = v
	}
	return nil
}

type failingAuthorizer struct{}

func (failingAuthorizer) Authorize(*url.URL, map[string]string) error {
	return errors.New("token expired")
}

func TestClient_Defaults(t *testing.T) {
	client := xhr.NewClient(xhr.ClientParams{
		Config: &config.ClientConfig{
			Timeout:      25 * time.Millisecond,
			Headers:      map[string]string{"X-Default": "d", "X-Override": "default"},
			ResponseType: "json",
		},
	})

	t.Run("headers and response type", func(t *testing.T) {
		mock := transporttest.New(transporttest.Modern).OnSend(func(m *transporttest.Mock) {
			m.FakeComplete(200, `[1,2]`)
		})

		res, err := await(t, client.Send(context.Background(), "GET", "/", &xhr.Options{
			Headers: map[string]string{"X-Override": "call"},
		}, mock))
		require.NoError(t, err)

		assert.Equal(t, "d", mock.RequestHeaders().Get("X-Default"))
		assert.Equal(t, "call", mock.RequestHeaders().Get("X-Override"))
		assert.Equal(t, transport.ResponseTypeJSON, mock.ResponseType())
		assert.Equal(t, []any{float64(1), float64(2)}, res.Response)
		assert.Equal(t, 25*time.Millisecond, mock.Timeout())
		assert.Zero(t, res.Args.Timeout, "args keep what the caller passed")
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := await(t, client.Send(context.Background(), "GET", "/", nil,
			transporttest.TimingOut(transporttest.NoTimeout, 50*time.Millisecond)))
		assert.ErrorIs(t, err, xhr.ErrTimeout)
	})

	t.Run("call timeout wins", func(t *testing.T) {
		mock := transporttest.OK(0)
		_, err := await(t, client.Send(context.Background(), "GET", "/", &xhr.Options{Timeout: time.Second}, mock))
		require.NoError(t, err)
		assert.Equal(t, time.Second, mock.Timeout())
	})
}

func TestClient_RequestIDHeader(t *testing.T) {
	mock := transporttest.OK(0)

	res, err := await(t, xhr.Send(context.Background(), "GET", "/", nil, mock))
	require.NoError(t, err)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, res.RequestID, mock.RequestHeaders().Get(xhr.HeaderRequestID))
}

func TestClient_Authorizer(t *testing.T) {
	t.Run("adds credentials", func(t *testing.T) {
		client := xhr.NewClient(xhr.ClientParams{
			Authorizer: staticAuthorizer{"Authorization": "Bearer abc", "X-Trace": "auth"},
		})
		mock := transporttest.OK(0)

		_, err := await(t, client.Send(context.Background(), "GET", "/", &xhr.Options{
			Headers: map[string]string{"X-Trace": "call"},
		}, mock))
		require.NoError(t, err)
		assert.Equal(t, "Bearer abc", mock.RequestHeaders().Get("Authorization"))
		assert.Equal(t, "call", mock.RequestHeaders().Get("X-Trace"))
	})

	t.Run("failure rejects before send", func(t *testing.T) {
		client := xhr.NewClient(xhr.ClientParams{Authorizer: failingAuthorizer{}})
		mock := transporttest.OK(0)

		_, err := await(t, client.Send(context.Background(), "GET", "/", nil, mock))
		assert.ErrorIs(t, err, xhr.ErrOpen)
		assert.ErrorContains(t, err, "token expired")
		assert.Equal(t, 0, mock.Sends())
	})
}

func TestClient_TransportFactory(t *testing.T) {
	var created []*transporttest.Mock
	client := xhr.NewClient(xhr.ClientParams{
		Transport: func() transport.Transport {
			m := transporttest.OK(0)
			created = append(created, m)
			return m
		},
	})

	res, err := client.Do(context.Background(), "GET", "/one", nil)
	require.NoError(t, err)
	assert.Equal(t, "success!", res.ResponseText)

	_, err = client.Do(context.Background(), "GET", "/two", nil)
	require.NoError(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, "/one", created[0].URL())
	assert.Equal(t, "/two", created[1].URL())
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client := xhr.NewClient(xhr.ClientParams{Metrics: xhr.NewMetrics(reg)})

	_, err := await(t, client.Send(context.Background(), "GET", "/", nil, transporttest.OK(0)))
	require.NoError(t, err)
	_, err = await(t, client.Send(context.Background(), "GET", "/", nil, transporttest.Fail(0)))
	require.Error(t, err)
	_, err = await(t, client.Send(context.Background(), "POST", "/", &xhr.Options{Timeout: time.Millisecond},
		transporttest.TimingOut(transporttest.Modern, 5*time.Millisecond)))
	require.Error(t, err)

	expected := `
# HELP auto_xhr_requests_in_flight Number of requests that have not settled yet
# TYPE auto_xhr_requests_in_flight gauge
auto_xhr_requests_in_flight 0
# HELP auto_xhr_requests_total Total number of settled requests
# TYPE auto_xhr_requests_total counter
auto_xhr_requests_total{code="0",method="POST",outcome="timeout"} 1
auto_xhr_requests_total{code="200",method="GET",outcome="resolved"} 1
auto_xhr_requests_total{code="404",method="GET",outcome="status"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"auto_xhr_requests_total", "auto_xhr_requests_in_flight")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "auto_xhr_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestClient_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	client := xhr.NewClient(xhr.ClientParams{TracerProvider: tp})

	res, err := await(t, client.Send(context.Background(), "GET", "/ok", nil, transporttest.OK(0)))
	require.NoError(t, err)
	_, err = await(t, client.Send(context.Background(), "DELETE", "/missing", nil, transporttest.Fail(0)))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "xhr GET", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "/ok", attrs["url.full"])
	assert.Equal(t, res.RequestID, attrs["xhr.request_id"])
	assert.Equal(t, int64(200), attrs["http.response.status_code"])

	assert.Equal(t, "xhr DELETE", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "status", spans[1].Status().Description)
	require.NotEmpty(t, spans[1].Events())
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestClient_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })

	_, err := await(t, xhr.Send(context.Background(), "GET", "/quiet", nil, transporttest.OK(0)))
	require.NoError(t, err)
	_, err = await(t, xhr.Send(context.Background(), "GET", "/loud", &xhr.Options{Log: true}, transporttest.OK(0)))
	require.NoError(t, err)
	_, err = await(t, xhr.Send(context.Background(), "GET", "/bad", &xhr.Options{Log: true}, transporttest.Fail(0)))
	require.Error(t, err)

	levelOf := func(url, msg string) zapcore.Level {
		entries := logs.FilterMessage(msg).FilterField(zap.String("url", url)).All()
		require.Len(t, entries, 1, "%s %s", msg, url)
		return entries[0].Level
	}

	assert.Equal(t, zapcore.DebugLevel, levelOf("/quiet", "xhr request"))
	assert.Equal(t, zapcore.DebugLevel, levelOf("/quiet", "xhr request resolved"))
	assert.Equal(t, zapcore.InfoLevel, levelOf("/loud", "xhr request"))
	assert.Equal(t, zapcore.InfoLevel, levelOf("/loud", "xhr request resolved"))
	assert.Equal(t, zapcore.WarnLevel, levelOf("/bad", "xhr request rejected"))

	rejected := logs.FilterMessage("xhr request rejected").All()[0].ContextMap()
	assert.Equal(t, "status", rejected["outcome"])
	assert.EqualValues(t, 404, rejected["status"])
}
