package protocol

import (
	"bufio"
	"io"
	"strings"

	"github.com/pior/dict/internal/bufpool"
)

// MaxLineLength is the longest command line accepted by RFC 2229 servers,
// terminator included.
const MaxLineLength = 1024

var linePool = bufpool.New(128, MaxLineLength)

// InvalidArgumentError is returned when a request argument cannot be put on the wire.
//
// Common causes:
//   - Argument contains CR or LF
//   - Command line exceeds MaxLineLength
//
// Connection handling: Connection is still valid, request was rejected client-side
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return "dict: " + e.Message
}

// ShouldCloseConnection returns false - nothing was written
func (e *InvalidArgumentError) ShouldCloseConnection() bool {
	return false
}

// ValidateRequest checks that req serializes to a single valid command line.
func ValidateRequest(req *Request) error {
	for _, arg := range req.Args {
		if strings.ContainsAny(arg, "\r\n") {
			return &InvalidArgumentError{Message: "argument contains a line break"}
		}
	}
	if len(appendRequest(nil, req))+len(CRLF) > MaxLineLength {
		return &InvalidArgumentError{Message: "command line too long"}
	}
	return nil
}

// WriteRequest serializes req to wire format and writes it to w.
// Format: <command> [<arg>]*\r\n
//
// A bufio.Writer is flushed before returning.
// Write failures are returned as *ConnectionError.
func WriteRequest(w io.Writer, req *Request) error {
	if err := ValidateRequest(req); err != nil {
		return err
	}

	buf := linePool.Get()
	defer linePool.Put(buf)

	buf.Write(appendRequest(buf.AvailableBuffer(), req))
	buf.WriteString(CRLF)

	if _, err := w.Write(buf.Bytes()); err != nil {
		return &ConnectionError{Op: "write", Err: err}
	}

	if bw, ok := w.(*bufio.Writer); ok {
		if err := bw.Flush(); err != nil {
			return &ConnectionError{Op: "flush", Err: err}
		}
	}

	return nil
}

func appendRequest(buf []byte, req *Request) []byte {
	buf = append(buf, req.Command...)
	for _, arg := range req.Args {
		buf = append(buf, Space...)
		if req.AlwaysQuote || needsQuoting(arg) {
			buf = appendQuoted(buf, arg)
		} else {
			buf = append(buf, arg...)
		}
	}
	return buf
}

// needsQuoting reports whether arg is not a valid bare atom.
func needsQuoting(arg string) bool {
	return arg == "" || strings.ContainsAny(arg, " \t\"'\\")
}

// appendQuoted writes arg between double quotes, escaping '"' and '\'.
func appendQuoted(buf []byte, arg string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if c == '"' || c == '\\' {
			buf = append(buf, '\\')
		}
		buf = append(buf, c)
	}
	return append(buf, '"')
}
