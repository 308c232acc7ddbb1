package dict

import (
	"context"
	"errors"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/dict/protocol"
)

var ErrClientClosed = errors.New("dict: client closed")

// DefaultClientName is sent with CLIENT when Config.ClientName is empty.
const DefaultClientName = "github.com/pior/dict"

// Querier is the set of lookups a Client offers.
type Querier interface {
	Define(ctx context.Context, db protocol.Database, word string) ([]protocol.Definition, error)
	Match(ctx context.Context, db protocol.Database, strategy protocol.Strategy, word string) ([]protocol.Match, error)
	ShowDatabases(ctx context.Context) ([]protocol.Database, error)
	ShowStrategies(ctx context.Context) ([]protocol.Strategy, error)
}

// Config holds configuration for the DICT client.
type Config struct {
	// ClientName is sent with the CLIENT command after the greeting.
	// Empty uses DefaultClientName. "-" skips the CLIENT command.
	ClientName string

	// Dialer is the net.Dialer used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// DialTimeout bounds dialing, the greeting and CLIENT when the context
	// has no deadline. Zero means no limit.
	DialTimeout time.Duration

	// NewCircuitBreaker creates the circuit breaker for the server.
	// If nil, no circuit breaker is used. Set IsSuccessful to
	// IsCircuitBreakerSuccess so server refusals do not count as failures.
	NewCircuitBreaker func(serverAddr string) *gobreaker.CircuitBreaker[bool]

	// CacheSize is the number of answers kept in memory. Zero disables the cache.
	CacheSize int

	// CacheTTL is how long a cached answer stays valid. Zero means no expiry.
	CacheTTL time.Duration

	// Logger receives debug and warning events. If nil, nothing is logged.
	Logger *zerolog.Logger

	// for testing purposes only
	constructor func(ctx context.Context) (*Connection, error)
}

// Client runs DICT transactions against one server over a single connection.
//
// The connection is dialed on first use and kept open between
// transactions. Concurrent calls are serialized. After a transport or
// parse error the connection is discarded and the next call dials again;
// failed transactions are never retried.
type Client struct {
	addr           string
	clientName     string
	dialer         *net.Dialer
	dialTimeout    time.Duration
	lease          *connLease
	circuitBreaker *gobreaker.CircuitBreaker[bool] // nil if not configured
	cache          *resultCache                    // nil if not configured
	stats          *clientStatsCollector
	logger         zerolog.Logger

	mu     sync.Mutex
	closed bool
}

var _ Querier = (*Client)(nil)

// NewClient creates a client for the server at addr (host:port).
// No connection is made until the first transaction.
func NewClient(addr string, config Config) (*Client, error) {
	if addr == "" {
		return nil, ErrMissingHost
	}

	c := &Client{
		addr:        addr,
		clientName:  config.ClientName,
		dialer:      config.Dialer,
		dialTimeout: config.DialTimeout,
		cache:       newResultCache(config.CacheSize, config.CacheTTL),
		stats:       newClientStatsCollector(),
		logger:      zerolog.Nop(),
	}
	if c.clientName == "" {
		c.clientName = DefaultClientName
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{}
	}
	if config.Logger != nil {
		c.logger = config.Logger.With().Str("server", addr).Logger()
	}
	if config.NewCircuitBreaker != nil {
		c.circuitBreaker = config.NewCircuitBreaker(addr)
	}

	constructor := config.constructor
	if constructor == nil {
		constructor = c.dial
	}

	lease, err := newConnLease(constructor)
	if err != nil {
		return nil, err
	}
	c.lease = lease

	return c, nil
}

// NewClientForTarget creates a client for the server named by a dict:// target.
func NewClientForTarget(target *Target, config Config) (*Client, error) {
	return NewClient(target.Addr(), config)
}

// dial opens a connection, reads the greeting and identifies the client.
func (c *Client) dial(ctx context.Context) (*Connection, error) {
	if c.dialTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.dialTimeout)
			defer cancel()
		}
	}

	c.logger.Debug().Msg("dialing")

	netConn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}

	conn := NewConnection(netConn)
	if err := applyDeadline(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	greeting, err := conn.ReadGreeting()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	c.logger.Debug().
		Strs("capabilities", greeting.Capabilities).
		Str("msg_id", greeting.MessageID).
		Msg("connected")

	if c.clientName != "-" {
		if _, err := conn.Identify(c.clientName); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// applyDeadline sets the connection deadline from the context, or clears it.
func applyDeadline(ctx context.Context, conn *Connection) error {
	if deadline, ok := ctx.Deadline(); ok {
		return conn.SetDeadline(deadline)
	}
	return conn.SetDeadline(time.Time{})
}

// execute runs fn with exclusive use of the connection, wrapped with the
// circuit breaker. The connection is discarded when fn fails with an
// error that leaves the stream in an unknown state.
func (c *Client) execute(ctx context.Context, op string, fn func(conn *Connection) error) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.circuitBreaker == nil {
		return c.executeDirect(ctx, op, fn)
	}

	before := c.circuitBreaker.State()
	defer func() {
		if after := c.circuitBreaker.State(); after != before {
			c.logger.Info().Stringer("from", before).Stringer("to", after).Msg("circuit breaker state changed")
		}
	}()

	_, err := c.circuitBreaker.Execute(func() (bool, error) {
		err := c.executeDirect(ctx, op, fn)
		return err == nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn().Err(err).Str("op", op).Msg("circuit breaker rejected request")
	}
	return err
}

func (c *Client) executeDirect(ctx context.Context, op string, fn func(conn *Connection) error) error {
	resource, err := c.lease.acquire(ctx)
	if err != nil {
		c.stats.recordError(false)
		return err
	}

	conn := resource.Value()
	if conn.IsClosed() {
		resource.Destroy()
		if resource, err = c.lease.acquire(ctx); err != nil {
			c.stats.recordError(false)
			return err
		}
		conn = resource.Value()
	}

	if err := applyDeadline(ctx, conn); err != nil {
		resource.Destroy()
		c.stats.recordError(false)
		return err
	}

	err = fn(conn)
	if err == nil {
		resource.Release()
		return nil
	}

	destroy := protocol.ShouldCloseConnection(err)
	if destroy {
		resource.Destroy()
	} else {
		resource.Release()
	}

	serverError := protocol.IsServerError(err)
	c.stats.recordError(serverError)

	event := c.logger.Warn()
	if serverError {
		event = c.logger.Debug()
	}
	event.Err(err).Str("op", op).Bool("connection_destroyed", destroy).Msg("transaction failed")

	return err
}

// Define returns every definition of word in db.
// A word without definition is a *protocol.ServerError with status 552.
func (c *Client) Define(ctx context.Context, db protocol.Database, word string) ([]protocol.Definition, error) {
	c.stats.recordDefine()

	key := cacheKey(protocol.NewDefineRequest(db, word).String())
	if v, ok := c.cache.get(key); ok {
		c.stats.recordCacheHit()
		return cloneDefinitions(v.([]protocol.Definition)), nil
	}

	var defs []protocol.Definition
	err := c.execute(ctx, "define", func(conn *Connection) error {
		var err error
		defs, _, err = conn.Define(db, word)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.put(key, cloneDefinitions(defs))
	return defs, nil
}

// Match returns the words of db matching word with strategy.
// No match is a *protocol.ServerError with status 552.
func (c *Client) Match(ctx context.Context, db protocol.Database, strategy protocol.Strategy, word string) ([]protocol.Match, error) {
	c.stats.recordMatch()

	key := cacheKey(protocol.NewMatchRequest(db, strategy, word).String())
	if v, ok := c.cache.get(key); ok {
		c.stats.recordCacheHit()
		return slices.Clone(v.([]protocol.Match)), nil
	}

	var matches []protocol.Match
	err := c.execute(ctx, "match", func(conn *Connection) error {
		var err error
		matches, _, err = conn.Match(db, strategy, word)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.put(key, slices.Clone(matches))
	return matches, nil
}

// ShowDatabases returns the databases offered by the server.
func (c *Client) ShowDatabases(ctx context.Context) ([]protocol.Database, error) {
	c.stats.recordShow()

	key := cacheKey(string(protocol.CmdShowDatabases))
	if v, ok := c.cache.get(key); ok {
		c.stats.recordCacheHit()
		return slices.Clone(v.([]protocol.Database)), nil
	}

	var dbs []protocol.Database
	err := c.execute(ctx, "show databases", func(conn *Connection) error {
		var err error
		dbs, _, err = conn.ShowDatabases()
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.put(key, slices.Clone(dbs))
	return dbs, nil
}

// ShowStrategies returns the strategies offered by the server.
func (c *Client) ShowStrategies(ctx context.Context) ([]protocol.Strategy, error) {
	c.stats.recordShow()

	key := cacheKey(string(protocol.CmdShowStrategies))
	if v, ok := c.cache.get(key); ok {
		c.stats.recordCacheHit()
		return slices.Clone(v.([]protocol.Strategy)), nil
	}

	var strategies []protocol.Strategy
	err := c.execute(ctx, "show strategies", func(conn *Connection) error {
		var err error
		strategies, _, err = conn.ShowStrategies()
		return err
	})
	if err != nil {
		return nil, err
	}

	c.cache.put(key, slices.Clone(strategies))
	return strategies, nil
}

// Greeting returns the banner of the current connection, dialing if needed.
func (c *Client) Greeting(ctx context.Context) (protocol.Greeting, error) {
	var g protocol.Greeting
	err := c.execute(ctx, "greeting", func(conn *Connection) error {
		g = conn.Greeting()
		return nil
	})
	return g, err
}

// LookupResult holds the answer to a target action.
type LookupResult struct {
	Definitions []protocol.Definition // ActionDefine
	Matches     []protocol.Match      // ActionMatch
}

// Lookup runs the initial action of a dict:// target.
//
// When the action carries a positive Nth, only the Nth result (1-based)
// is returned; an Nth past the end returns no result. ActionNone only
// makes sure the server is reachable.
func (c *Client) Lookup(ctx context.Context, action Action) (*LookupResult, error) {
	switch action.Kind {
	case ActionDefine:
		defs, err := c.Define(ctx, action.Database, action.Word)
		if err != nil {
			return nil, err
		}
		return &LookupResult{Definitions: selectNth(defs, action.Nth)}, nil

	case ActionMatch:
		matches, err := c.Match(ctx, action.Database, action.Strategy, action.Word)
		if err != nil {
			return nil, err
		}
		return &LookupResult{Matches: selectNth(matches, action.Nth)}, nil

	default:
		if _, err := c.Greeting(ctx); err != nil {
			return nil, err
		}
		return &LookupResult{}, nil
	}
}

func selectNth[T any](items []T, nth *int) []T {
	if nth == nil || *nth <= 0 {
		return items
	}
	if *nth > len(items) {
		return nil
	}
	return items[*nth-1 : *nth]
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	s := c.stats.snapshot()
	s.Lease = c.lease.stats()
	if c.circuitBreaker != nil {
		s.CircuitBreakerState = c.circuitBreaker.State()
	}
	return s
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close sends QUIT on the idle connection, if any, and closes the client.
// It waits for a transaction in progress to finish.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if resource := c.lease.idle(); resource != nil {
		conn := resource.Value()
		_ = conn.SetDeadline(time.Now().Add(time.Second))
		if reply, err := conn.Quit(); err != nil {
			c.logger.Debug().Err(err).Msg("quit failed")
		} else {
			c.logger.Debug().Str("reply", reply.String()).Msg("quit")
		}
		resource.Destroy()
	}

	c.lease.close()
}
