package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gatepass/internal/handlers/testutil"
	"github.com/charlesng35/gatepass/internal/realtime"
)

func TestRealtimeScanFeed(t *testing.T) {
	env := testutil.NewEnv(t)
	cred := env.IssueCredential(env.CreateRegistrant("PRN001", "Asha"))

	server := httptest.NewServer(env.Router)
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/realtime/scans"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?key="+testutil.AdminKey, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return env.Hub.Subscribers(realtime.StreamScans) == 1 }, time.Second, 10*time.Millisecond)

	body, err := json.Marshal(map[string]string{"token": cred.Token, "scanner": "gate-1"})
	require.NoError(t, err)
	res, err := http.Post(server.URL+"/api/validate", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, res.Body.Close())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg realtime.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, realtime.StreamScans, msg.Stream)
	require.Equal(t, realtime.EventScanAccepted, msg.Event)
}

func TestRealtimeRejectsUnknownStream(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.AdminRequest(http.MethodGet, "/api/realtime/scans?streams=secrets", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
