package service

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/danielchen8624/smartdim/types"
)

// connection wraps a client socket. Reads happen only on the connection
// handler goroutine; writes also come from state broadcasts, so they
// are serialized by a mutex.
type connection struct {
	conn    net.Conn
	decoder *json.Decoder

	encoderMu sync.Mutex
	encoder   *json.Encoder

	subscriptionsMu sync.RWMutex
	subscriptions   map[types.SubscriptionKey]struct{}
}

func newConnection(netConn net.Conn) *connection {
	return &connection{
		conn:    netConn,
		decoder: json.NewDecoder(netConn),
		encoder: json.NewEncoder(netConn),

		subscriptions: map[types.SubscriptionKey]struct{}{},
	}
}

func (c *connection) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}

	return nil
}

func (c *connection) Read() (types.Request, error) {
	var request types.Request

	if err := c.decoder.Decode(&request); err != nil {
		return types.Request{}, fmt.Errorf("decoding request: %w", err)
	}

	return request, nil
}

func (c *connection) Write(response types.Response) error {
	c.encoderMu.Lock()
	defer c.encoderMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(time.Second)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}

	if err := c.encoder.Encode(response); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}

	return nil
}

func (c *connection) WriteLogError(response types.Response) {
	if err := c.Write(response); err != nil {
		log.Printf("Write error: %s\n", err)
	}
}

func (c *connection) Subscribe(keys []types.SubscriptionKey) {
	c.subscriptionsMu.Lock()
	defer c.subscriptionsMu.Unlock()

	for _, key := range keys {
		c.subscriptions[key] = struct{}{}
	}
}

func (c *connection) Unsubscribe(keys []types.SubscriptionKey) {
	c.subscriptionsMu.Lock()
	defer c.subscriptionsMu.Unlock()

	for _, key := range keys {
		delete(c.subscriptions, key)
	}
}

func (c *connection) IsSubscribed(key types.SubscriptionKey) bool {
	c.subscriptionsMu.RLock()
	defer c.subscriptionsMu.RUnlock()

	_, ok := c.subscriptions[key]

	return ok
}
