package protocol

import (
	"errors"
	"fmt"
)

// Error types for DICT protocol operations.
// These errors help clients decide whether a connection is still usable
// after a failed transaction.

var (
	// ErrTruncatedLine is returned when a reply line is too short to hold a status code.
	ErrTruncatedLine = errors.New("dict: truncated reply line")

	// ErrInvalidStatus is returned when the first three characters of a reply are not a status code.
	ErrInvalidStatus = errors.New("dict: invalid status")

	// ErrNoAnswer is returned when the server closed the stream where a reply was required.
	ErrNoAnswer = errors.New("dict: no answer")
)

// ServerError is a well-formed reply with a negative status (4yz, 5yz).
//
// Common causes:
//   - 552 no match
//   - 550 invalid database
//   - 551 invalid strategy
//   - 500/501 syntax error
//   - 420 server temporarily unavailable
//
// Connection handling: Connection can be REUSED
type ServerError struct {
	Reply Reply
}

func (e *ServerError) Error() string {
	return "dict: server error: " + e.Reply.String()
}

// Status returns the status carried by the reply.
func (e *ServerError) Status() Status {
	return e.Reply.Status
}

// ShouldCloseConnection returns false - the server answered in sync
func (e *ServerError) ShouldCloseConnection() bool {
	return false
}

// MalformedAnswerError is returned when a reply or a payload line lacks
// the fields its status requires. The payload block has already been
// drained when this error is returned.
//
// Connection handling: Connection can be REUSED once the transaction has
// read the rest of its answer
type MalformedAnswerError struct {
	Reason string
	Reply  Reply
}

func (e *MalformedAnswerError) Error() string {
	return "dict: malformed answer: " + e.Reason
}

// ShouldCloseConnection returns false - the stream position is still known
func (e *MalformedAnswerError) ShouldCloseConnection() bool {
	return false
}

// UnexpectedPacketError is returned by a transaction that received a valid
// packet which does not fit its expected sequence.
//
// Connection handling: Connection can be REUSED once the transaction has
// read the rest of its answer
type UnexpectedPacketError struct {
	Packet *Packet
}

func (e *UnexpectedPacketError) Error() string {
	if e.Packet == nil {
		return "dict: unexpected packet"
	}
	return fmt.Sprintf("dict: unexpected %s packet: %s", e.Packet.Kind, e.Packet.Reply)
}

// ShouldCloseConnection returns false
func (e *UnexpectedPacketError) ShouldCloseConnection() bool {
	return false
}

// ParseError represents a client-side parsing error on a reply line.
//
// Common causes:
//   - Line shorter than 3 characters
//   - Invalid reply kind, category or number
//
// Connection handling: Connection should be CLOSED as state is uncertain
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dict: parse error: %v: %q", e.Err, e.Line)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - parse errors indicate corrupted state
func (e *ParseError) ShouldCloseConnection() bool {
	return true
}

// ConnectionError wraps underlying I/O errors from connection operations.
//
// Connection handling: Connection is already broken, CLOSE it
type ConnectionError struct {
	Op  string // Operation that failed (read, write, etc.)
	Err error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("dict: connection error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection returns true - connection errors mean connection is broken
func (e *ConnectionError) ShouldCloseConnection() bool {
	return true
}

// ErrorWithConnectionState is an interface for errors that indicate
// whether the connection should be closed.
type ErrorWithConnectionState interface {
	error
	ShouldCloseConnection() bool
}

// ShouldCloseConnection reports whether err leaves the connection in an
// unknown state.
//
// Returns false for nil, ServerError, MalformedAnswerError and
// UnexpectedPacketError. Returns true for everything else, including
// ErrNoAnswer and unknown error types.
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var e ErrorWithConnectionState
	if errors.As(err, &e) {
		return e.ShouldCloseConnection()
	}

	// Unknown error type - be conservative and close connection
	return true
}

// IsServerError reports whether err is a negative server reply, and if
// so whether its status matches one of codes (any status when codes is empty).
func IsServerError(err error, codes ...Status) bool {
	var se *ServerError
	if !errors.As(err, &se) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if se.Reply.Status == c {
			return true
		}
	}
	return false
}
