package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Reply is one decoded status line: "<status> <text>".
type Reply struct {
	Status Status
	Text   string
}

func (r Reply) String() string {
	if r.Text == "" {
		return r.Status.String()
	}
	return r.Status.String() + Space + r.Text
}

// ParseReply decodes a single reply line.
// The line terminator, if any, is stripped first.
//
// Returns *ParseError wrapping ErrTruncatedLine when the line is shorter
// than a status code, or wrapping ErrInvalidStatus and the status error
// when the code does not parse.
func ParseReply(line string) (Reply, error) {
	line = trimEOL(line)

	if len(line) < 3 {
		return Reply{}, &ParseError{Line: line, Err: ErrTruncatedLine}
	}

	status, err := ParseStatus(line[:3])
	if err != nil {
		return Reply{}, &ParseError{Line: line, Err: errors.Join(ErrInvalidStatus, err)}
	}

	return Reply{
		Status: status,
		Text:   strings.TrimSpace(line[3:]),
	}, nil
}

// ReadReply reads and parses the next reply line from r.
//
// Returns ErrNoAnswer if the stream ended cleanly before the line started,
// *ConnectionError for any other I/O failure and *ParseError for a line
// that is not a reply.
func ReadReply(r *bufio.Reader) (Reply, error) {
	line, err := readLine(r)
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return Reply{}, ErrNoAnswer
		}
		return Reply{}, &ConnectionError{Op: "read reply", Err: err}
	}
	return ParseReply(line)
}

// readLine returns the next line without its terminator.
// A final line without terminator is returned along with io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return trimEOL(line), io.ErrUnexpectedEOF
		}
		return trimEOL(line), err
	}
	return trimEOL(line), nil
}

// trimEOL strips one trailing LF or CRLF.
func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
