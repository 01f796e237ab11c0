package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ViewerClient is an outgoing WebSocket connection to a live channel viewer.
type ViewerClient struct {
	ws           *websocket.Conn
	logger       *zap.Logger
	writeTimeout time.Duration

	mu      sync.Mutex
	readErr error
	done    chan struct{}
}

// DialOptions configures DialViewer.
type DialOptions struct {
	URL          string
	BearerToken  string
	WriteTimeout time.Duration
}

// DialViewer connects to the viewer endpoint.
func DialViewer(ctx context.Context, opts DialOptions, logger *zap.Logger) (*ViewerClient, error) {
	if opts.URL == "" {
		return nil, errors.New("ws: viewer url is required")
	}
	header := http.Header{}
	if opts.BearerToken != "" {
		header.Set("Authorization", "Bearer "+opts.BearerToken)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, opts.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws: dial %s: %w (status %d)", opts.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("ws: dial %s: %w", opts.URL, err)
	}

	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}

	c := &ViewerClient{
		ws:           conn,
		logger:       logger,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

// readPump drains incoming frames so control messages are processed.
func (c *ViewerClient) readPump() {
	defer close(c.done)
	c.ws.SetReadLimit(64 * 1024)
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Debug("viewer connection read closed", zap.Error(err))
			}
			return
		}
	}
}

// WriteJSON sends v as a text frame. It fails once the viewer closed the connection.
func (c *ViewerClient) WriteJSON(v any) error {
	c.mu.Lock()
	readErr := c.readErr
	c.mu.Unlock()
	if readErr != nil {
		return fmt.Errorf("ws: viewer connection closed: %w", readErr)
	}

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// Close performs the closing handshake and releases the connection.
func (c *ViewerClient) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))

	select {
	case <-c.done:
	case <-time.After(time.Second):
	}
	return c.ws.Close()
}
