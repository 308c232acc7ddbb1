// Package protocol provides a low-level wire protocol implementation for
// the DICT dictionary server protocol (RFC 2229).
//
// This package serves as a foundation for building DICT clients. It
// focuses on correctness of serialization and parsing, without imposing
// connection management decisions on callers.
//
// # Core Types
//
//   - Status: a decoded 3-digit reply code (kind, category, number)
//   - Reply: one status line
//   - Packet: a reply with the typed payload its status implies
//   - Request: one command line
//   - Database, Strategy, Definition, Match, Greeting: payload values
//
// # Serialization and Parsing
//
// WriteRequest serializes requests to wire format:
//
//	err := protocol.WriteRequest(conn, protocol.NewDefineRequest(protocol.AllDatabases(), "shortcake"))
//
// ReadPacket decodes the server stream one packet at a time:
//
//	r := bufio.NewReader(conn)
//	for {
//	    p, err := protocol.ReadPacket(r)
//	    if err != nil {
//	        if protocol.ShouldCloseConnection(err) {
//	            conn.Close()
//	        }
//	        return err
//	    }
//	    if p.Kind == protocol.PacketOK {
//	        break
//	    }
//	    // use p.Definition, p.Matches, ...
//	}
//
// A DEFINE answer spans several packets:
//
//	150 2 definitions retrieved
//	151 "shortcake" wn "WordNet (r) 3.0 (2006)"
//	shortcake
//	    n 1: very short biscuit dough baked as a cake or individual biscuits
//	.
//	151 "shortcake" gcide "The Collaborative International Dictionary of English v.0.48"
//	...
//	.
//	250 ok
//
// # Error Handling
//
// Negative replies (4yz, 5yz) are returned as *ServerError and leave the
// stream in sync. Use ShouldCloseConnection to decide whether a
// connection can serve another command after an error:
//
//   - ServerError, MalformedAnswerError, UnexpectedPacketError,
//     InvalidArgumentError: connection reusable
//   - ParseError, ConnectionError, ErrNoAnswer: close the connection
//
// # Thread Safety
//
// Functions in this package are stateless. A bufio.Reader or io.Writer
// must not be shared between goroutines without synchronization.
package protocol
