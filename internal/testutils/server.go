package testutils

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const DefaultGreeting = "220 dict.test dictd 1.12.1/rf on Linux <auth.mime> <100.200@dict.test>\r\n"

// Handler answers one request line (without CRLF). Returning close=true
// makes the server hang up after writing the answer.
type Handler func(line string) (answer string, close bool)

// Server is a scripted DICT server listening on the loopback interface.
type Server struct {
	Addr string

	greeting    string
	handler     Handler
	connections atomic.Int32

	mu       sync.Mutex
	requests []string
}

// NewServer starts a server answering with handler. It stops when the test ends.
func NewServer(t testing.TB, handler Handler) *Server {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to start test server: %v", err)
	}
	t.Cleanup(func() {
		listener.Close()
	})

	s := &Server{
		Addr:     listener.Addr().String(),
		greeting: DefaultGreeting,
		handler:  handler,
	}

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			s.connections.Add(1)
			go s.serve(conn)
		}
	}()

	return s
}

// NewScriptServer starts a server answering from a table keyed by request line.
// CLIENT and QUIT get their usual answers unless the table says otherwise;
// any other unknown request gets "500 unknown command".
func NewScriptServer(t testing.TB, answers map[string]string) *Server {
	return NewServer(t, func(line string) (string, bool) {
		if answer, ok := answers[line]; ok {
			return answer, false
		}
		switch {
		case strings.HasPrefix(line, "CLIENT "):
			return "250 ok\r\n", false
		case line == "QUIT":
			return "221 bye\r\n", true
		}
		return "500 unknown command\r\n", false
	})
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	if _, err := conn.Write([]byte(s.greeting)); err != nil {
		return
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.requests = append(s.requests, line)
		s.mu.Unlock()

		answer, hangUp := s.handler(line)
		if answer != "" {
			if _, err := conn.Write([]byte(answer)); err != nil {
				return
			}
		}
		if hangUp {
			return
		}
	}
}

// Connections returns how many connections were accepted.
func (s *Server) Connections() int {
	return int(s.connections.Load())
}

// Requests returns every request line received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}
