// Package rpcclient implements the client side of the mux RPC protocol: a
// single framed transport, a background reader thread, and a
// serial -> waiter table used to correlate replies that may arrive out of
// order.
package rpcclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/ehrlich-b/wezmux/internal/tab"
	"github.com/ehrlich-b/wezmux/internal/wire"
)

// Client maintains one framed transport to a remote mux server. Public
// methods send one PDU and return a value that resolves when the
// matching reply arrives. On connection loss the client fails all
// outstanding waiters with ErrDisconnected and refuses new sends.
type Client struct {
	conn io.ReadWriteCloser

	writeMu sync.Mutex

	mu       sync.Mutex
	waiters  map[uint64]chan waiterResult
	closed   bool
	closeErr error

	nextSerial uint64
}

type waiterResult struct {
	pdu wire.Pdu
	err error
}

// Dial connects to addr over network, which is one of "tcp", "unix", "ws",
// or "wss". For "ws"/"wss" addr is a URL; a background reader goroutine is
// started immediately.
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var conn io.ReadWriteCloser

	switch network {
	case "tcp", "unix":
		c, err := net.Dial(network, addr)
		if err != nil {
			return nil, err
		}
		conn = c

	case "ws", "wss":
		u, err := url.Parse(addr)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" {
			u.Scheme = network
		}
		wsConn, _, err := websocket.Dial(ctx, u.String(), nil)
		if err != nil {
			return nil, err
		}
		conn = websocket.NetConn(context.Background(), wsConn, websocket.MessageBinary)

	default:
		return nil, fmt.Errorf("rpcclient: unsupported network %q", network)
	}

	c := &Client{
		conn:    conn,
		waiters: make(map[uint64]chan waiterResult),
	}
	go c.readLoop()
	return c, nil
}

// NewOverConn wraps an already-established byte-stream connection (e.g. a
// net.Pipe half, for tests) as a Client.
func NewOverConn(conn io.ReadWriteCloser) *Client {
	c := &Client{
		conn:    conn,
		waiters: make(map[uint64]chan waiterResult),
	}
	go c.readLoop()
	return c
}

// readLoop is the background RPC reader thread: it decodes frames and
// dispatches each to the waiter registered for its serial. On any decode
// error the transport is considered dead; every outstanding (and future)
// waiter fails with ErrDisconnected.
func (c *Client) readLoop() {
	br := wire.NewByteReader(c.conn)
	for {
		decoded, err := wire.Decode(br)
		if err != nil {
			c.fail(tab.ErrDisconnected)
			return
		}

		c.mu.Lock()
		ch, ok := c.waiters[decoded.Serial]
		if ok {
			delete(c.waiters, decoded.Serial)
		}
		c.mu.Unlock()

		if ok {
			ch <- waiterResult{pdu: decoded.Pdu}
		}
	}
}

// fail marks the client closed and resolves every outstanding waiter with
// err. Monotonic: once failed, stays failed.
func (c *Client) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = err
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- waiterResult{err: err}
	}
	c.conn.Close()
}

// call sends req under a freshly allocated serial and blocks (respecting
// ctx) until the matching reply arrives or the transport fails.
func (c *Client) call(ctx context.Context, req wire.Pdu) (wire.Pdu, error) {
	serial := atomic.AddUint64(&c.nextSerial, 1)

	c.mu.Lock()
	if c.closed {
		err := c.closeErr
		c.mu.Unlock()
		if err == nil {
			err = tab.ErrDisconnected
		}
		return wire.Pdu{}, err
	}
	ch := make(chan waiterResult, 1)
	c.waiters[serial] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := wire.Encode(c.conn, req, serial)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.waiters, serial)
		c.mu.Unlock()
		return wire.Pdu{}, err
	}

	select {
	case res := <-ch:
		return res.pdu, res.err
	case <-ctx.Done():
		return wire.Pdu{}, ctx.Err()
	}
}

// Close releases the underlying transport and fails any outstanding
// waiters with ErrDisconnected.
func (c *Client) Close() error {
	c.fail(tab.ErrDisconnected)
	return nil
}
