package http

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rushhourgame/spatial/spatial"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/websocket"
)

func newStreamServer(t *testing.T) (string, string) {
	w := newTestWorld(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := httptest.NewServer(websocket.Server{
		Handler: HandleStatsStream(ctx, w, time.Millisecond*10),
	})
	t.Cleanup(server.Close)

	return strings.ReplaceAll(server.URL, "http://", "ws://"), w.UUID
}

func TestHandleStatsStream(t *testing.T) {
	url, worldUUID := newStreamServer(t)

	t.Run("json encoding", func(t *testing.T) {
		conn, err := websocket.Dial(url, "", "http://localhost")
		require.NoError(t, err)
		defer conn.Close()

		for i := 0; i < 2; i++ {
			var msg string
			require.NoError(t, websocket.Message.Receive(conn, &msg))

			var res statsResponse
			require.NoError(t, json.Unmarshal([]byte(msg), &res))
			require.Equal(t, worldUUID, res.World)
			require.Equal(t, 3, res.TotalObjects)
		}
	})

	t.Run("msgpack encoding", func(t *testing.T) {
		conn, err := websocket.Dial(url+"?encoding=msgpack", "", "http://localhost")
		require.NoError(t, err)
		defer conn.Close()

		var msg []byte
		require.NoError(t, websocket.Message.Receive(conn, &msg))

		var res statsResponse
		dec := msgpack.NewDecoder(bytes.NewReader(msg))
		dec.SetCustomStructTag("json")
		require.NoError(t, dec.Decode(&res))
		require.Equal(t, worldUUID, res.World)
		require.Equal(t, 3, res.TotalObjects)
		require.Equal(t, 1, res.ObjectsByType[spatial.TypeAgent])
	})

	t.Run("unknown encoding closes the stream", func(t *testing.T) {
		conn, err := websocket.Dial(url+"?encoding=xml", "", "http://localhost")
		require.NoError(t, err)
		defer conn.Close()

		var msg []byte
		require.Error(t, websocket.Message.Receive(conn, &msg))
	})
}
