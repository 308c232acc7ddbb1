package dict

import (
	"context"
	"sync/atomic"

	"github.com/jackc/puddle/v2"
)

// connLease hands out the single connection of a Client.
//
// It is a puddle pool capped at one resource: the connection is dialed on
// first use, only one transaction holds it at a time, and a connection
// destroyed after a fatal error is dialed again by the next acquire.
type connLease struct {
	pool           *puddle.Pool[*Connection]
	createdConns   atomic.Uint64
	destroyedConns atomic.Uint64
}

func newConnLease(constructor func(ctx context.Context) (*Connection, error)) (*connLease, error) {
	l := &connLease{}

	pool, err := puddle.NewPool(&puddle.Config[*Connection]{
		Constructor: func(ctx context.Context) (*Connection, error) {
			conn, err := constructor(ctx)
			if err == nil {
				l.createdConns.Add(1)
			}
			return conn, err
		},
		Destructor: func(c *Connection) {
			l.destroyedConns.Add(1)
			_ = c.Close()
		},
		MaxSize: 1,
	})
	if err != nil {
		return nil, err
	}

	l.pool = pool
	return l, nil
}

// acquire blocks until the connection is free or ctx is done.
func (l *connLease) acquire(ctx context.Context) (*puddle.Resource[*Connection], error) {
	return l.pool.Acquire(ctx)
}

// idle returns the connection if it exists and nobody holds it.
func (l *connLease) idle() *puddle.Resource[*Connection] {
	resources := l.pool.AcquireAllIdle()
	if len(resources) == 0 {
		return nil
	}
	return resources[0]
}

func (l *connLease) close() {
	l.pool.Close()
}

// LeaseStats contains statistics about the client connection.
type LeaseStats struct {
	AcquireCount     uint64 // Total acquire attempts
	AcquireWaitCount uint64 // Acquires that waited for another transaction
	CreatedConns     uint64 // Connections dialed
	DestroyedConns   uint64 // Connections discarded
	Connected        bool   // Whether a connection is currently open
}

func (l *connLease) stats() LeaseStats {
	s := l.pool.Stat()
	return LeaseStats{
		AcquireCount:     uint64(s.AcquireCount()),
		AcquireWaitCount: uint64(s.EmptyAcquireCount()),
		CreatedConns:     l.createdConns.Load(),
		DestroyedConns:   l.destroyedConns.Load(),
		Connected:        s.TotalResources() > 0,
	}
}
