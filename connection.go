package dict

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pior/dict/internal/coarsetime"
	"github.com/pior/dict/protocol"
)

var (
	ErrConnectionClosed = errors.New("dict: connection closed")
)

// Connection is a single DICT session over a net.Conn.
//
// Transactions are half-duplex: each command method writes one request
// and drains every packet of its answer before returning, holding the
// connection lock for the whole exchange. A Connection is safe for use
// from several goroutines, commands simply run one after the other.
//
// After an error for which protocol.ShouldCloseConnection returns true the
// connection is closed and every further call returns ErrConnectionClosed.
type Connection struct {
	conn   net.Conn
	Reader *bufio.Reader
	Writer *bufio.Writer

	mu       sync.Mutex
	closed   bool
	greeting protocol.Greeting
	lastUsed time.Time
}

// NewConnection wraps an established network connection.
// The server greeting has not been read yet, see ReadGreeting.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{
		conn:     conn,
		Reader:   bufio.NewReader(conn),
		Writer:   bufio.NewWriter(conn),
		lastUsed: coarsetime.Now(),
	}
}

// ReadGreeting reads the 220 banner the server sends on connect.
// Any other first packet is an *protocol.UnexpectedPacketError.
func (c *Connection) ReadGreeting() (protocol.Greeting, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.next()
	if err != nil {
		return protocol.Greeting{}, err
	}
	if p.Kind != protocol.PacketGreeting {
		return protocol.Greeting{}, &protocol.UnexpectedPacketError{Packet: p}
	}

	c.greeting = p.Greeting
	return p.Greeting, nil
}

// Greeting returns the banner read by ReadGreeting.
func (c *Connection) Greeting() protocol.Greeting {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.greeting
}

// Next reads the next packet from the server.
//
// Command methods already drive Next internally. It is exposed for
// callers that issue requests through Send and decode answers themselves.
func (c *Connection) Next() (*protocol.Packet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next()
}

// Send writes a raw request without reading any answer.
func (c *Connection) Send(req *protocol.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(req)
}

// next must be called with the lock held.
func (c *Connection) next() (*protocol.Packet, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}

	p, err := protocol.ReadPacket(c.Reader)
	if err != nil {
		if protocol.ShouldCloseConnection(err) {
			c.markClosed()
		}
		return nil, err
	}

	c.lastUsed = coarsetime.Now()
	return p, nil
}

// send must be called with the lock held.
func (c *Connection) send(req *protocol.Request) error {
	if c.closed {
		return ErrConnectionClosed
	}

	err := protocol.WriteRequest(c.Writer, req)
	if err != nil && protocol.ShouldCloseConnection(err) {
		c.markClosed()
	}
	return err
}

// SetDeadline sets the read and write deadline of the underlying connection.
// A zero value clears it.
func (c *Connection) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// LastUsed returns when the connection last received a packet
func (c *Connection) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// IsClosed returns whether the connection is closed
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Addr returns the remote address
func (c *Connection) Addr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the connection without sending QUIT.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	return c.conn.Close()
}

// markClosed closes a connection whose stream position is unknown (must be called with lock held)
func (c *Connection) markClosed() {
	c.closed = true
	_ = c.conn.Close()
}
