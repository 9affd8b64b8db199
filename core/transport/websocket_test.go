package transport_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ipc/core/transport"
)

func TestWebSocketProtocol_SendAndReceive(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	serverReceived := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		proto := transport.NewWebSocketProtocol(conn)
		proto.OnMessage(func(data []byte) { serverReceived <- data })

		require.NoError(t, proto.Send([]byte("hello from server")))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	clientProto := transport.NewWebSocketProtocol(conn)
	defer clientProto.Close()

	clientReceived := make(chan []byte, 1)
	clientProto.OnMessage(func(data []byte) { clientReceived <- data })

	require.NoError(t, clientProto.Send([]byte("hello from client")))

	select {
	case data := <-serverReceived:
		require.Equal(t, "hello from client", string(data))
	case <-time.After(time.Second):
		t.Fatal("server did not receive message")
	}

	select {
	case data := <-clientReceived:
		require.Equal(t, "hello from server", string(data))
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
	}
}

func TestWebSocketProtocol_OnErrorFiresOnClose(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverClosed := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		transport.NewWebSocketProtocol(conn, transport.WithOnError(func(error) {
			close(serverClosed)
		}))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	clientProto := transport.NewWebSocketProtocol(conn)
	require.NoError(t, clientProto.Close())

	select {
	case <-serverClosed:
	case <-time.After(time.Second):
		t.Fatal("server did not observe client disconnect")
	}
}
