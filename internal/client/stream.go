package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/visadesk/internal/models"
)

// Stream message types sent by the log stream endpoint.
const (
	streamEntry = "entry"
	streamDone  = "done"
	streamError = "error"
	streamPing  = "ping"
)

// streamMessage is one frame of the framework log stream.
type streamMessage struct {
	Type  string           `json:"type"`
	Entry *models.LogEntry `json:"entry,omitempty"`
	Error string           `json:"error,omitempty"`
}

// StreamFrameworkLogs follows the framework log over a WebSocket, invoking
// onEntry for each entry the server pushes. It returns nil when the server
// reports the job done. Return an error from onEntry to abort.
func (c *Client) StreamFrameworkLogs(ctx context.Context, projectID string, onEntry func(models.LogEntry) error) error {
	u, err := url.Parse(c.baseURL + "/api/projects/" + pathID(projectID) + "/framework-logs/stream")
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	var once sync.Once
	closeConn := func() { once.Do(func() { conn.Close() }) }
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case streamEntry:
			if msg.Entry == nil {
				continue
			}
			if err := onEntry(*msg.Entry); err != nil {
				return err
			}
		case streamDone:
			return nil
		case streamError:
			return fmt.Errorf("stream error: %s", msg.Error)
		case streamPing:
			continue
		default:
			c.logger.Debug("ignoring unknown stream message", "type", msg.Type)
		}
	}
}
