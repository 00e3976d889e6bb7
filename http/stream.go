package http

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/rushhourgame/spatial/models"
	"github.com/segmentio/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/websocket"
)

// Stats stream encodings, selected with the encoding query parameter.
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// HandleStatsStream sends the world stats to the connected client at every
// interval, until the client disconnects or the context is done. Stats are
// sent as JSON text frames, or as msgpack binary frames when the msgpack
// encoding is requested.
func HandleStatsStream(ctx context.Context, world *models.World, interval time.Duration) websocket.Handler {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		instrumentStreamConnected()
		defer instrumentStreamDisconnected()

		encoding := conn.Request().URL.Query().Get("encoding")
		if encoding == "" {
			encoding = EncodingJSON
		}

		disconnected := make(chan struct{})
		go func() {
			defer close(disconnected)
			io.Copy(io.Discard, conn)
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := sendStats(conn, world, encoding); err != nil {
				logs.WithTag("remote_addr", conn.Request().RemoteAddr).
					WithTag("encoding", encoding).
					Debug(errors.New("sending stats failed").Wrap(err))
				return
			}

			select {
			case <-ctx.Done():
				return

			case <-disconnected:
				return

			case <-ticker.C:
			}
		}
	}
}

func sendStats(conn *websocket.Conn, world *models.World, encoding string) error {
	stats := worldStats(world)

	switch encoding {
	case EncodingJSON:
		b, err := json.Marshal(stats)
		if err != nil {
			return errors.New("encoding stats failed").Wrap(err)
		}
		return websocket.Message.Send(conn, string(b))

	case EncodingMsgpack:
		b, err := marshalMsgpack(stats)
		if err != nil {
			return errors.New("encoding stats failed").Wrap(err)
		}
		return websocket.Message.Send(conn, b)

	default:
		return errors.New("unknown stream encoding").
			WithType(ErrTypeBadQuery).
			WithTag("encoding", encoding)
	}
}

// marshalMsgpack encodes v with the same field names as its JSON
// representation.
func marshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HandlePing echoes back everything the client sends.
func HandlePing(conn *websocket.Conn) {
	defer conn.Close()
	io.Copy(conn, conn)
}
