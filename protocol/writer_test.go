package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      *Request
		expected string
	}{
		{
			name:     "client",
			req:      NewClientRequest("dict-go 1.0"),
			expected: "CLIENT \"dict-go 1.0\"\r\n",
		},
		{
			name:     "define",
			req:      NewDefineRequest(AllDatabases(), "shortcake"),
			expected: "DEFINE \"*\" \"shortcake\"\r\n",
		},
		{
			name:     "define with escaped quote",
			req:      NewDefineRequest(Database{Name: "wn"}, `say "hi"`),
			expected: "DEFINE \"wn\" \"say \\\"hi\\\"\"\r\n",
		},
		{
			name:     "match",
			req:      NewMatchRequest(FirstMatch(), DefaultStrategy(), "shortcake"),
			expected: "MATCH ! . shortcake\r\n",
		},
		{
			name:     "match with spaces",
			req:      NewMatchRequest(Database{Name: "wn"}, PrefixStrategy(), "ice cream"),
			expected: "MATCH wn prefix \"ice cream\"\r\n",
		},
		{
			name:     "match empty word",
			req:      NewMatchRequest(AllDatabases(), ExactStrategy(), ""),
			expected: "MATCH * exact \"\"\r\n",
		},
		{
			name:     "show databases",
			req:      NewShowDatabasesRequest(),
			expected: "SHOW DATABASES\r\n",
		},
		{
			name:     "show strategies",
			req:      NewShowStrategiesRequest(),
			expected: "SHOW STRATEGIES\r\n",
		},
		{
			name:     "quit",
			req:      NewQuitRequest(),
			expected: "QUIT\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteRequest(&buf, tt.req))
			require.Equal(t, tt.expected, buf.String())
			require.Equal(t, strings.TrimSuffix(tt.expected, CRLF), tt.req.String())
		})
	}
}

func TestWriteRequest_BufferedWriterIsFlushed(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)

	require.NoError(t, WriteRequest(bw, NewShowDatabasesRequest()))
	require.Equal(t, "SHOW DATABASES\r\n", buf.String())
}

func TestWriteRequest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
	}{
		{"line break in word", NewDefineRequest(AllDatabases(), "a\r\nQUIT")},
		{"newline in client name", NewClientRequest("x\ny")},
		{"too long", NewMatchRequest(AllDatabases(), DefaultStrategy(), strings.Repeat("a", MaxLineLength))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteRequest(&buf, tt.req)

			var ie *InvalidArgumentError
			require.ErrorAs(t, err, &ie)
			require.False(t, ShouldCloseConnection(err))
			require.Zero(t, buf.Len())
		})
	}
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestWriteRequest_WriteError(t *testing.T) {
	boom := errors.New("broken pipe")
	err := WriteRequest(failingWriter{err: boom}, NewQuitRequest())
	require.ErrorIs(t, err, boom)

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	require.True(t, ShouldCloseConnection(err))
}
