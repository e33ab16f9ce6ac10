package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/config"
	apierrors "dtindex/internal/errors"
	"dtindex/internal/services"
	"dtindex/internal/shared/testutil"
	"dtindex/pkg/contracts/domain"
	"dtindex/pkg/contracts/events"
)

type staticProvider struct {
	ds  *domain.Dataset
	err error
}

func (p staticProvider) Get(context.Context) (*domain.Dataset, error) {
	return p.ds, p.err
}

func newAnalyzer(t *testing.T, p staticProvider) *services.DashboardService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return services.NewDashboardService(p, nil, logger)
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.PingPeriod = time.Hour
	return opts
}

func TestAnalyze_DefaultViews(t *testing.T) {
	a := newAnalyzer(t, staticProvider{ds: testutil.SampleDataset()})

	reply, fatal := analyze(context.Background(), a, events.FilterMessage{
		RequestID: "r1",
		Filter:    domain.FilterSpec{EntityID: "600519"},
	}, "trace")

	assert.False(t, fatal)
	msg, ok := reply.(events.AnalysisMessage)
	require.True(t, ok, "got %T", reply)
	assert.Equal(t, events.MessageTypeAnalysis, msg.Type)
	assert.Equal(t, "r1", msg.RequestID)
	require.NotNil(t, msg.Data.Overview)
	assert.Equal(t, 4, msg.Data.Overview.Observations)
	assert.Len(t, msg.Data.Describe, 3)
	assert.Len(t, msg.Data.Trend, 3)
	assert.Nil(t, msg.Data.Forecast, "forecast was not requested")
	assert.Empty(t, msg.Data.Notices)
}

func TestAnalyze_PerViewNotices(t *testing.T) {
	a := newAnalyzer(t, staticProvider{ds: testutil.SampleDataset()})

	reply, _ := analyze(context.Background(), a, events.FilterMessage{
		Filter: domain.FilterSpec{EntityID: "000001"},
		Views:  []events.View{events.ViewRecords, events.ViewForecast, "chart"},
	}, "")

	msg := reply.(events.AnalysisMessage)
	assert.Len(t, msg.Data.Records, 2)
	assert.Nil(t, msg.Data.Forecast)
	assert.Contains(t, msg.Data.Notices[events.ViewForecast], "not enough observations")
	assert.Equal(t, "unknown view", msg.Data.Notices["chart"])
}

func TestAnalyze_OverviewWithoutEntityIsNotice(t *testing.T) {
	a := newAnalyzer(t, staticProvider{ds: testutil.SampleDataset()})

	reply, _ := analyze(context.Background(), a, events.FilterMessage{
		Views: []events.View{events.ViewOverview, events.ViewCorrelation},
	}, "")

	msg := reply.(events.AnalysisMessage)
	assert.Nil(t, msg.Data.Overview)
	assert.Contains(t, msg.Data.Notices, events.ViewOverview)
	require.NotNil(t, msg.Data.Correlation)
	v, ok := msg.Data.Correlation.At(domain.DimensionIndex, domain.DimensionIndex)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestAnalyze_EmptyView(t *testing.T) {
	a := newAnalyzer(t, staticProvider{ds: testutil.SampleDataset()})

	reply, fatal := analyze(context.Background(), a, events.FilterMessage{
		RequestID: "r2",
		Filter:    domain.FilterSpec{EntityID: "000001", YearFrom: 2030},
	}, "")

	assert.False(t, fatal)
	msg, ok := reply.(events.EmptyMessage)
	require.True(t, ok, "got %T", reply)
	assert.Equal(t, "r2", msg.RequestID)
	assert.Equal(t, apierrors.ErrEmptyResult.Error(), msg.Notice)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		provider staticProvider
		filter   domain.FilterSpec
		code     string
		fatal    bool
	}{
		{
			name:     "unknown company",
			provider: staticProvider{ds: testutil.SampleDataset()},
			filter:   domain.FilterSpec{EntityID: "999999"},
			code:     events.ErrCodeNotFound,
		},
		{
			name:     "inverted years",
			provider: staticProvider{ds: testutil.SampleDataset()},
			filter:   domain.FilterSpec{YearFrom: 2021, YearTo: 2019},
			code:     events.ErrCodeInvalidFilter,
		},
		{
			name:     "load failure ends the session",
			provider: staticProvider{err: apierrors.NewMissingFileError("/data/x.xlsx", errors.New("no such file"))},
			code:     events.ErrCodeDataLoad,
			fatal:    true,
		},
		{
			name:     "unexpected",
			provider: staticProvider{err: errors.New("boom")},
			code:     events.ErrCodeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyzer(t, tt.provider)
			reply, fatal := analyze(context.Background(), a, events.FilterMessage{Filter: tt.filter}, "")

			msg, ok := reply.(events.ErrorMessage)
			require.True(t, ok, "got %T", reply)
			assert.Equal(t, tt.code, msg.Data.Code)
			assert.Equal(t, tt.fatal, fatal)
			assert.Equal(t, tt.fatal, msg.Data.Fatal)
		})
	}
}

func readJSON(t *testing.T, conn *MockConnection) map[string]interface{} {
	t.Helper()
	msg, ok := conn.Next(2 * time.Second)
	require.True(t, ok, "no message written")
	require.Equal(t, websocket.TextMessage, msg.Type)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

func TestClient_Session(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(testOptions(), logger, nil)
	hub.Start()
	defer hub.Stop()

	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, newAnalyzer(t, staticProvider{ds: testutil.SampleDataset()}), "trace-1", logger)

	done := make(chan struct{})
	go func() {
		client.Serve()
		close(done)
	}()

	greeting := readJSON(t, conn)
	assert.Equal(t, "connect", greeting["type"])
	assert.Equal(t, "trace-1", greeting["trace_id"])
	data := greeting["data"].(map[string]interface{})
	assert.Equal(t, client.ID(), data["session_id"])
	assert.Len(t, data["dimensions"], 3)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Push([]byte(`{"type":"heartbeat"}`))
	conn.Push([]byte(`{"type":"filter","request_id":"a","filter":{"entity_id":"600519"},"views":["forecast"],"horizon":2}`))

	reply := readJSON(t, conn)
	assert.Equal(t, "analysis", reply["type"])
	assert.Equal(t, "a", reply["request_id"])
	forecast := reply["data"].(map[string]interface{})["forecast"].(map[string]interface{})
	assert.Len(t, forecast["points"], 2)

	conn.Push([]byte(`not json`))
	assert.Equal(t, "error", readJSON(t, conn)["type"])

	conn.Push([]byte(`{"type":"subscribe"}`))
	unsupported := readJSON(t, conn)
	assert.Equal(t, events.ErrCodeUnsupported, unsupported["data"].(map[string]interface{})["code"])

	conn.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("read pump did not stop")
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClient_FatalErrorClosesSession(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(testOptions(), logger, nil)
	hub.Start()
	defer hub.Stop()

	conn := NewMockConnection()
	failing := newAnalyzer(t, staticProvider{err: apierrors.NewMissingColumnsError("/data/x.xlsx", []string{"年份"})})
	client := NewClientWithConnection(hub, conn, failing, "", logger)

	done := make(chan struct{})
	go func() {
		client.Serve()
		close(done)
	}()

	greeting := readJSON(t, conn)
	assert.NotContains(t, greeting["data"], "checksum")

	conn.Push([]byte(`{"type":"filter","request_id":"x","filter":{}}`))
	reply := readJSON(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, true, reply["data"].(map[string]interface{})["fatal"])

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session stayed open after a fatal error")
	}
	assert.Eventually(t, conn.IsClosed, time.Second, 5*time.Millisecond)
}

func TestHub_StopClosesSessions(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(testOptions(), logger, nil)
	hub.Start()

	client := NewClientWithConnection(hub, NewMockConnection(), nil, "", logger)
	hub.Register(client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-client.send
	assert.False(t, open)

	// Stopping twice and queueing after close are both harmless
	hub.Stop()
	assert.NotPanics(t, func() { client.queue(errorMessage("", "", events.ErrorData{Code: "X"})) })
}

func TestHub_StopWaitsForSessionPumps(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hub := NewHub(testOptions(), logger, nil)
	hub.Start()

	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, newAnalyzer(t, staticProvider{ds: testutil.SampleDataset()}), "", logger)
	served := make(chan struct{})
	go func() {
		client.Serve()
		close(served)
	}()

	assert.Equal(t, "connect", readJSON(t, conn)["type"])
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()

	// Both pumps have exited, so the disconnect and pump logs are already in
	assert.True(t, conn.IsClosed())
	assert.True(t, logs.ContainsMessage("Hub shutting down"))
	assert.True(t, logs.ContainsMessage("client disconnected"))
	assert.True(t, logs.ContainsMessage("write pump stopped"))

	after := logs.Count()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, logs.Count(), "nothing logs once Stop has returned")
}

func TestClient_ServeOnStoppedHub(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(testOptions(), logger, nil)
	hub.Start()
	hub.Stop()

	conn := NewMockConnection()
	client := NewClientWithConnection(hub, conn, newAnalyzer(t, staticProvider{ds: testutil.SampleDataset()}), "", logger)

	done := make(chan struct{})
	go func() {
		client.Serve()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session on a stopped hub did not end")
	}
	assert.True(t, conn.IsClosed())
	assert.Zero(t, hub.ClientCount())
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(configWebSocket(30*time.Second, 0))
	assert.Equal(t, 30*time.Second, opts.PongWait)
	assert.Equal(t, 27*time.Second, opts.PingPeriod)

	opts = OptionsFrom(configWebSocket(30*time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, opts.PingPeriod)

	assert.Equal(t, DefaultOptions(), OptionsFrom(configWebSocket(0, 0)))
}

func configWebSocket(pong, ping time.Duration) config.WebSocketConfig {
	return config.WebSocketConfig{PongWait: pong, PingPeriod: ping}
}
