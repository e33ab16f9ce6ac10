package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dtindex/internal/config"
	"dtindex/internal/services"
	"dtindex/internal/shared/testutil"
	ws "dtindex/internal/websocket"
	"dtindex/pkg/contracts/domain"
	"dtindex/pkg/contracts/events"
)

func newLiveServer(t *testing.T, origins []string) (*httptest.Server, *ws.Hub) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	hub := ws.NewHub(ws.DefaultOptions(), logger, nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	svc := services.NewDashboardService(fixedProvider{ds: testutil.SampleDataset()}, nil, logger)
	handler := NewWebSocketHandler(hub, svc, config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024}, origins, logger)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return websocket.DefaultDialer.DialContext(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), header)
}

func TestWebSocketHandler_Session(t *testing.T) {
	srv, hub := newLiveServer(t, nil)

	conn, _, err := dial(t, srv, "")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var greeting events.ConnectMessage
	require.NoError(t, conn.ReadJSON(&greeting))
	assert.Equal(t, events.MessageTypeConnect, greeting.Type)
	assert.Equal(t, events.ProtocolVersion, greeting.Data.ProtocolVersion)
	assert.NotEmpty(t, greeting.Data.SessionID)

	require.NoError(t, conn.WriteJSON(events.FilterMessage{
		Type:      events.MessageTypeFilter,
		RequestID: "q1",
		Filter:    domain.FilterSpec{EntityID: "600519"},
		Views:     []events.View{events.ViewOverview},
	}))

	var reply events.AnalysisMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, events.MessageTypeAnalysis, reply.Type)
	assert.Equal(t, "q1", reply.RequestID)
	require.NotNil(t, reply.Data.Overview)
	assert.Equal(t, "贵州茅台", reply.Data.Overview.EntityName)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketHandler_Origins(t *testing.T) {
	srv, _ := newLiveServer(t, []string{"http://dashboard.example.com"})

	conn, _, err := dial(t, srv, "http://dashboard.example.com")
	require.NoError(t, err)
	conn.Close()

	conn, _, err = dial(t, srv, srv.URL)
	require.NoError(t, err, "same-host origin is accepted")
	conn.Close()

	_, resp, err := dial(t, srv, "http://evil.example.com")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	open, _ := newLiveServer(t, []string{"*"})
	conn, _, err = dial(t, open, "http://anything.example.com")
	require.NoError(t, err)
	conn.Close()
}
