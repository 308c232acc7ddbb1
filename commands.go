package dict

import (
	"errors"

	"github.com/pior/dict/protocol"
)

// Identify sends CLIENT "<name>" and expects 250.
func (c *Connection) Identify(name string) (protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(protocol.NewClientRequest(name)); err != nil {
		return protocol.Reply{}, err
	}

	p, err := c.expect(protocol.PacketOK)
	if err != nil {
		return protocol.Reply{}, c.drain(err)
	}
	return p.Reply, nil
}

// Define sends DEFINE "<db>" "<word>" and collects every definition.
//
// Answer sequence: 150, then one 151 + text block per definition, then
// 250. The returned reply is the final 250. On any error the definitions
// read so far are discarded.
//
// A word without definition fails with a *protocol.ServerError (552).
func (c *Connection) Define(db protocol.Database, word string) ([]protocol.Definition, protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(protocol.NewDefineRequest(db, word)); err != nil {
		return nil, protocol.Reply{}, err
	}

	if _, err := c.expect(protocol.PacketDefinitionsFollow); err != nil {
		return nil, protocol.Reply{}, c.drain(err)
	}

	var defs []protocol.Definition
	for {
		p, err := c.next()
		if err != nil {
			return nil, protocol.Reply{}, c.drain(err)
		}

		switch p.Kind {
		case protocol.PacketDefinition:
			defs = append(defs, p.Definition)
		case protocol.PacketOK:
			return defs, p.Reply, nil
		default:
			return nil, protocol.Reply{}, c.drain(&protocol.UnexpectedPacketError{Packet: p})
		}
	}
}

// Match sends MATCH <db> <strategy> <word>.
// Answer sequence: 152 + text block, then 250.
//
// No matching word fails with a *protocol.ServerError (552).
func (c *Connection) Match(db protocol.Database, strategy protocol.Strategy, word string) ([]protocol.Match, protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.roundTrip(protocol.NewMatchRequest(db, strategy, word), protocol.PacketMatches)
	if err != nil {
		return nil, protocol.Reply{}, err
	}
	return p.Matches, p.Reply, nil
}

// ShowDatabases sends SHOW DATABASES.
// Answer sequence: 110 + text block, then 250.
func (c *Connection) ShowDatabases() ([]protocol.Database, protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.roundTrip(protocol.NewShowDatabasesRequest(), protocol.PacketDatabases)
	if err != nil {
		return nil, protocol.Reply{}, err
	}
	return p.Databases, p.Reply, nil
}

// ShowStrategies sends SHOW STRATEGIES.
// Answer sequence: 111 + text block, then 250.
func (c *Connection) ShowStrategies() ([]protocol.Strategy, protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := c.roundTrip(protocol.NewShowStrategiesRequest(), protocol.PacketStrategies)
	if err != nil {
		return nil, protocol.Reply{}, err
	}
	return p.Strategies, p.Reply, nil
}

// Quit sends QUIT, expects 221 and closes the connection.
// The connection is closed even when the server answers otherwise.
func (c *Connection) Quit() (protocol.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if !c.closed {
			c.closed = true
			_ = c.conn.Close()
		}
	}()

	if err := c.send(protocol.NewQuitRequest()); err != nil {
		return protocol.Reply{}, err
	}

	p, err := c.next()
	if err != nil {
		return protocol.Reply{}, err
	}
	if p.Reply.Status != protocol.StatusClosing {
		return protocol.Reply{}, &protocol.UnexpectedPacketError{Packet: p}
	}
	return p.Reply, nil
}

// roundTrip sends req, expects one packet of kind then a closing 250.
// The returned packet is the list packet (must be called with lock held).
func (c *Connection) roundTrip(req *protocol.Request, kind protocol.PacketKind) (*protocol.Packet, error) {
	if err := c.send(req); err != nil {
		return nil, err
	}

	p, err := c.expect(kind)
	if err != nil {
		return nil, c.drain(err)
	}

	if _, err := c.expect(protocol.PacketOK); err != nil {
		return nil, c.drain(err)
	}
	return p, nil
}

// drain reads the rest of a failed answer up to its terminal packet, so
// the next command starts in sync. It returns err unchanged.
//
// Terminal packets are 250, a server refusal, or a fatal error (which
// closes the connection). Must be called with lock held.
func (c *Connection) drain(err error) error {
	if !midAnswer(err) {
		return err
	}

	for {
		p, nextErr := c.next()
		if nextErr != nil {
			if protocol.IsServerError(nextErr) || protocol.ShouldCloseConnection(nextErr) {
				return err
			}
			continue
		}
		if p.Kind == protocol.PacketOK {
			return err
		}
	}
}

// midAnswer reports whether err left packets of the current answer unread.
func midAnswer(err error) bool {
	var malformed *protocol.MalformedAnswerError
	if errors.As(err, &malformed) {
		return true
	}
	var unexpected *protocol.UnexpectedPacketError
	if errors.As(err, &unexpected) {
		return unexpected.Packet != nil && unexpected.Packet.Kind != protocol.PacketOK
	}
	return false
}

// expect reads one packet and fails unless it is of kind (must be called with lock held).
func (c *Connection) expect(kind protocol.PacketKind) (*protocol.Packet, error) {
	p, err := c.next()
	if err != nil {
		return nil, err
	}
	if p.Kind != kind {
		return nil, &protocol.UnexpectedPacketError{Packet: p}
	}
	return p, nil
}
