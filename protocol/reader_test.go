package protocol

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReader(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "")))
}

func TestReadTextBlock(t *testing.T) {
	r := newReader("abc\ndef\n.\n", "250 ok\n")

	lines, err := ReadTextBlock(r)
	require.NoError(t, err)
	require.Equal(t, []string{"abc", "def"}, lines)

	// sentinel consumed
	reply, err := ReadReply(r)
	require.NoError(t, err)
	require.Equal(t, StatusOK, reply.Status)
}

func TestReadTextBlock_CRLF(t *testing.T) {
	lines, err := ReadTextBlock(newReader("  indented\r\n\r\n..\r\n. \r\n.\r\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"  indented", "", "..", ". "}, lines)
}

func TestReadTextBlock_Empty(t *testing.T) {
	lines, err := ReadTextBlock(newReader(".\r\n"))
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestReadTextBlock_ClosedMidBlock(t *testing.T) {
	for _, input := range []string{"abc\ndef\n", "abc\nde", ""} {
		lines, err := ReadTextBlock(newReader(input))
		require.Nil(t, lines)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.True(t, ShouldCloseConnection(err))
	}
}

func TestReadPacket(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Packet
	}{
		{
			name:  "ok",
			input: "250 ok\r\n",
			want: &Packet{
				Kind:  PacketOK,
				Reply: Reply{Status: StatusOK, Text: "ok"},
			},
		},
		{
			name:  "definitions follow",
			input: "150 2 definitions retrieved\r\n",
			want: &Packet{
				Kind:  PacketDefinitionsFollow,
				Reply: Reply{Status: StatusDefinitionsFollow, Text: "2 definitions retrieved"},
			},
		},
		{
			name: "definition",
			input: "151 \"shortcake\" wn \"WordNet (r) 3.0 (2006)\"\r\n" +
				"shortcake\r\n" +
				"    n 1: very short biscuit dough baked as a cake\r\n" +
				".\r\n",
			want: &Packet{
				Kind:  PacketDefinition,
				Reply: Reply{Status: StatusDefinition, Text: `"shortcake" wn "WordNet (r) 3.0 (2006)"`},
				Definition: Definition{
					Source: Database{Name: "wn", Desc: "WordNet (r) 3.0 (2006)"},
					Text:   []string{"shortcake", "    n 1: very short biscuit dough baked as a cake"},
				},
			},
		},
		{
			name:  "matches",
			input: "152 2 matches found\r\ndb1 \"hello\"\r\nwn \"hello world\"\r\n.\r\n",
			want: &Packet{
				Kind:  PacketMatches,
				Reply: Reply{Status: StatusMatches, Text: "2 matches found"},
				Matches: []Match{
					{Source: Database{Name: "db1"}, Word: "hello"},
					{Source: Database{Name: "wn"}, Word: "hello world"},
				},
			},
		},
		{
			name:  "databases",
			input: "110 2 databases present\r\ngcide \"The Collaborative International Dictionary of English v.0.48\"\r\nwn \"WordNet (r) 3.0 (2006)\"\r\n.\r\n",
			want: &Packet{
				Kind:  PacketDatabases,
				Reply: Reply{Status: StatusDatabases, Text: "2 databases present"},
				Databases: []Database{
					{Name: "gcide", Desc: "The Collaborative International Dictionary of English v.0.48"},
					{Name: "wn", Desc: "WordNet (r) 3.0 (2006)"},
				},
			},
		},
		{
			name:  "strategies",
			input: "111 2 strategies present\r\nexact \"Match headwords exactly\"\r\nprefix \"Match prefixes\"\r\n.\r\n",
			want: &Packet{
				Kind:  PacketStrategies,
				Reply: Reply{Status: StatusStrategies, Text: "2 strategies present"},
				Strategies: []Strategy{
					{Name: "exact", Desc: "Match headwords exactly"},
					{Name: "prefix", Desc: "Match prefixes"},
				},
			},
		},
		{
			name:  "greeting",
			input: "220 dict.dict.org dictd 1.12.1/rf on Linux <auth.mime> <100.1234@dict.dict.org>\r\n",
			want: &Packet{
				Kind:  PacketGreeting,
				Reply: Reply{Status: StatusGreeting, Text: "dict.dict.org dictd 1.12.1/rf on Linux <auth.mime> <100.1234@dict.dict.org>"},
				Greeting: Greeting{
					Text:         "dict.dict.org dictd 1.12.1/rf on Linux <auth.mime> <100.1234@dict.dict.org>",
					Capabilities: []string{"auth", "mime"},
					MessageID:    "<100.1234@dict.dict.org>",
				},
			},
		},
		{
			name:  "generic positive reply",
			input: "221 bye [d/m/c = 0/0/0; 12.000r 0.000u 0.000s]\r\n",
			want: &Packet{
				Kind:  PacketReply,
				Reply: Reply{Status: StatusClosing, Text: "bye [d/m/c = 0/0/0; 12.000r 0.000u 0.000s]"},
			},
		},
		{
			name:  "intermediate reply",
			input: "330 send response\r\n",
			want: &Packet{
				Kind:  PacketReply,
				Reply: Reply{Status: Status{PositiveIntermediate, Authentication, 0}, Text: "send response"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReader(tt.input, "250 ok\r\n")

			got, err := ReadPacket(r)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			// the stream must be positioned on the next reply
			next, err := ReadPacket(r)
			require.NoError(t, err)
			require.Equal(t, PacketOK, next.Kind)
		})
	}
}

func TestReadPacket_ServerError(t *testing.T) {
	r := newReader("552 no match\r\n", "250 ok\r\n")

	p, err := ReadPacket(r)
	require.Nil(t, p)

	var se *ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StatusNoMatch, se.Status())
	require.Equal(t, "no match", se.Reply.Text)
	require.False(t, ShouldCloseConnection(err))
	require.True(t, IsServerError(err))
	require.True(t, IsServerError(err, StatusInvalidDatabase, StatusNoMatch))
	require.False(t, IsServerError(err, StatusInvalidDatabase))

	next, err := ReadPacket(r)
	require.NoError(t, err)
	require.True(t, next.Is(PacketOK))
}

func TestReadPacket_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{
			name:   "definition without database",
			input:  "151 \"shortcake\"\r\nbody\r\n.\r\n",
			reason: "missing database name",
		},
		{
			name:   "definition without description",
			input:  "151 \"shortcake\" wn\r\nbody\r\n.\r\n",
			reason: "missing database description",
		},
		{
			name:   "definition with unterminated description",
			input:  "151 \"w\" wn \"WordNet\r\nbody\r\n.\r\n",
			reason: "missing database description",
		},
		{
			name:   "match with unterminated word",
			input:  "152 1 match\r\nwn \"short cake\r\n.\r\n",
			reason: "missing word",
		},
		{
			name:   "match without word",
			input:  "152 1 match\r\nwn\r\n.\r\n",
			reason: "missing word",
		},
		{
			name:   "empty database line",
			input:  "110 1 database\r\n\r\n.\r\n",
			reason: "missing database name",
		},
		{
			name:   "strategy without description",
			input:  "111 1 strategy\r\nexact\r\n.\r\n",
			reason: "missing strategy description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReader(tt.input, "250 ok\r\n")

			_, err := ReadPacket(r)
			var me *MalformedAnswerError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.reason, me.Reason)
			assert.False(t, ShouldCloseConnection(err))

			// block drained: the connection is still usable
			next, err := ReadPacket(r)
			require.NoError(t, err)
			require.True(t, next.Is(PacketOK))
		})
	}
}

func TestReadPacket_TransportErrors(t *testing.T) {
	_, err := ReadPacket(newReader(""))
	require.ErrorIs(t, err, ErrNoAnswer)

	_, err = ReadPacket(newReader("151 \"w\" wn \"WordNet\"\r\nbody\r\n"))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = ReadPacket(newReader("15\r\n"))
	require.ErrorIs(t, err, ErrTruncatedLine)
}

func TestParseGreeting(t *testing.T) {
	g := parseGreeting("pan.alephnull.com dictd 1.12 <> <12.34@pan>")
	assert.Empty(t, g.Capabilities)
	assert.Equal(t, "<12.34@pan>", g.MessageID)

	g = parseGreeting("plain banner")
	assert.Empty(t, g.Capabilities)
	assert.Empty(t, g.MessageID)

	g = parseGreeting("x <mime.auth.xversion> <1@h>")
	assert.True(t, g.HasCapability("xversion"))
	assert.False(t, g.HasCapability("kerberos_v4"))
}
