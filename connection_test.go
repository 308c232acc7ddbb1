package dict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pior/dict/internal/testutils"
	"github.com/pior/dict/protocol"
)

const greetingLine = "220 dict.test dictd <auth.mime> <1.2@dict.test>\r\n"

func newMockConnection(serverOutput ...string) (*Connection, *testutils.ConnectionMock) {
	mock := testutils.NewConnectionMock(serverOutput...)
	return NewConnection(mock), mock
}

func TestConnection_ReadGreeting(t *testing.T) {
	conn, _ := newMockConnection(greetingLine)

	g, err := conn.ReadGreeting()
	require.NoError(t, err)
	assert.Equal(t, "<1.2@dict.test>", g.MessageID)
	assert.True(t, g.HasCapability("auth"))
	assert.True(t, g.HasCapability("mime"))
	assert.Equal(t, g, conn.Greeting())
}

func TestConnection_ReadGreeting_Unexpected(t *testing.T) {
	conn, _ := newMockConnection("250 ok\r\n")

	_, err := conn.ReadGreeting()
	var unexpected *protocol.UnexpectedPacketError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, protocol.PacketOK, unexpected.Packet.Kind)
	assert.False(t, conn.IsClosed())
}

func TestConnection_ReadGreeting_ServerRefuses(t *testing.T) {
	conn, _ := newMockConnection("530 access denied\r\n")

	_, err := conn.ReadGreeting()
	require.True(t, protocol.IsServerError(err, protocol.Status{Kind: protocol.NegativePermanent, Category: protocol.Authentication, Code: 0}))
}

func TestConnection_Identify(t *testing.T) {
	conn, mock := newMockConnection("250 ok\r\n")

	reply, err := conn.Identify("my client")
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, reply.Status)
	assert.Equal(t, "CLIENT \"my client\"\r\n", mock.GetWrittenRequest())
}

func TestConnection_Define(t *testing.T) {
	conn, mock := newMockConnection(
		"150 2 definitions retrieved\r\n",
		"151 \"shortcake\" wn \"WordNet (r) 3.0 (2006)\"\r\n",
		"shortcake\r\n",
		"    n 1: very short biscuit dough baked as individual biscuits\r\n",
		".\r\n",
		"151 \"shortcake\" gcide \"The Collaborative International Dictionary of English v.0.48\"\r\n",
		"Shortcake \\Short\"cake`\\, n.\r\n",
		".\r\n",
		"250 ok [d/m/c = 2/0/20; 0.000r 0.000u 0.000s]\r\n",
	)

	defs, reply, err := conn.Define(protocol.AllDatabases(), "shortcake")
	require.NoError(t, err)
	assert.Equal(t, "DEFINE \"*\" \"shortcake\"\r\n", mock.GetWrittenRequest())

	require.Len(t, defs, 2)
	assert.Equal(t, protocol.Database{Name: "wn", Desc: "WordNet (r) 3.0 (2006)"}, defs[0].Source)
	assert.Equal(t, []string{"shortcake", "    n 1: very short biscuit dough baked as individual biscuits"}, defs[0].Text)
	assert.Equal(t, "gcide", defs[1].Source.Name)

	assert.Equal(t, protocol.Status{Kind: protocol.PositiveCompletion, Category: protocol.System, Code: 0}, reply.Status)
}

func TestConnection_Define_SingleDefinition(t *testing.T) {
	conn, _ := newMockConnection(
		"150 1 definitions retrieved\r\n",
		"151 \"word\" \"db\" \"desc\"\r\n",
		"body\r\n",
		".\r\n",
		"250 ok\r\n",
	)

	defs, reply, err := conn.Define(protocol.Database{Name: "db"}, "word")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, protocol.Database{Name: "db", Desc: "desc"}, defs[0].Source)
	assert.Equal(t, []string{"body"}, defs[0].Text)
	assert.Equal(t, protocol.StatusOK, reply.Status)
}

func TestConnection_Define_NoMatch(t *testing.T) {
	conn, _ := newMockConnection("552 no match\r\n")

	defs, _, err := conn.Define(protocol.FirstMatch(), "qwxz")
	require.Error(t, err)
	assert.Nil(t, defs)
	assert.True(t, protocol.IsServerError(err, protocol.StatusNoMatch))
	assert.False(t, conn.IsClosed())
}

func TestConnection_Define_FailureDiscardsResults(t *testing.T) {
	conn, _ := newMockConnection(
		"150 2 definitions retrieved\r\n",
		"151 \"word\" wn \"WordNet\"\r\n",
		"body\r\n",
		".\r\n",
		"420 server temporarily unavailable\r\n",
	)

	defs, _, err := conn.Define(protocol.FirstMatch(), "word")
	var serverErr *protocol.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, protocol.NegativeTransient, serverErr.Status().Kind)
	assert.Nil(t, defs)
}

func TestConnection_Define_UnexpectedPacket(t *testing.T) {
	conn, _ := newMockConnection(
		"150 1 definitions retrieved\r\n",
		"152 1 matches found\r\n",
		"wn \"word\"\r\n",
		".\r\n",
		"250 ok\r\n",
		"250 ok\r\n",
	)

	_, _, err := conn.Define(protocol.FirstMatch(), "word")
	var unexpected *protocol.UnexpectedPacketError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, protocol.PacketMatches, unexpected.Packet.Kind)
	assert.False(t, conn.IsClosed())

	_, err = conn.Identify("next")
	require.NoError(t, err)
}

func TestConnection_Define_MalformedDefinitionKeepsSync(t *testing.T) {
	conn, _ := newMockConnection(
		"150 2 definitions retrieved\r\n",
		"151 \"word\" wn\r\n",
		"first body\r\n",
		".\r\n",
		"151 \"word\" gcide \"GCIDE\"\r\n",
		"second body\r\n",
		".\r\n",
		"250 ok\r\n",
		"111 1 strategies available\r\n",
		"prefix \"Match prefixes\"\r\n",
		".\r\n",
		"250 ok\r\n",
	)

	defs, _, err := conn.Define(protocol.FirstMatch(), "word")
	var malformed *protocol.MalformedAnswerError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "missing database description", malformed.Reason)
	assert.Nil(t, defs)
	assert.False(t, conn.IsClosed())

	strategies, _, err := conn.ShowStrategies()
	require.NoError(t, err)
	assert.Equal(t, []protocol.Strategy{{Name: "prefix", Desc: "Match prefixes"}}, strategies)
}

func TestConnection_Define_MalformedThenServerError(t *testing.T) {
	conn, _ := newMockConnection(
		"150 1 definitions retrieved\r\n",
		"151 \"word\"\r\n",
		".\r\n",
		"420 server temporarily unavailable\r\n",
		"250 ok\r\n",
	)

	_, _, err := conn.Define(protocol.FirstMatch(), "word")
	var malformed *protocol.MalformedAnswerError
	require.ErrorAs(t, err, &malformed)
	assert.False(t, conn.IsClosed())

	_, err = conn.Identify("next")
	require.NoError(t, err)
}

func TestConnection_Define_MalformedThenConnectionLost(t *testing.T) {
	conn, mock := newMockConnection(
		"150 1 definitions retrieved\r\n",
		"151 \"word\"\r\n",
		".\r\n",
	)

	_, _, err := conn.Define(protocol.FirstMatch(), "word")
	var malformed *protocol.MalformedAnswerError
	require.ErrorAs(t, err, &malformed)
	assert.True(t, conn.IsClosed())
	assert.True(t, mock.IsClosed())
}

func TestConnection_Define_ConnectionLost(t *testing.T) {
	conn, mock := newMockConnection(
		"150 1 definitions retrieved\r\n",
		"151 \"word\" wn \"WordNet\"\r\n",
		"body\r\n",
	)

	_, _, err := conn.Define(protocol.FirstMatch(), "word")
	require.Error(t, err)
	assert.True(t, protocol.ShouldCloseConnection(err))
	assert.True(t, conn.IsClosed())
	assert.True(t, mock.IsClosed())

	_, _, err = conn.Define(protocol.FirstMatch(), "word")
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestConnection_Match(t *testing.T) {
	conn, mock := newMockConnection(
		"152 1 matches found\r\n",
		"db1 \"hello\"\r\n",
		".\r\n",
		"250 ok\r\n",
	)

	matches, reply, err := conn.Match(protocol.AllDatabases(), protocol.PrefixStrategy(), "hel")
	require.NoError(t, err)
	assert.Equal(t, "MATCH * prefix hel\r\n", mock.GetWrittenRequest())
	assert.Equal(t, []protocol.Match{{Source: protocol.Database{Name: "db1"}, Word: "hello"}}, matches)
	assert.Equal(t, protocol.StatusOK, reply.Status)
}

func TestConnection_Match_MalformedKeepsSync(t *testing.T) {
	conn, _ := newMockConnection(
		"152 1 matches found\r\n",
		"onlyonefield\r\n",
		".\r\n",
		"250 ok\r\n",
		"110 1 databases present\r\n",
		"wn \"WordNet\"\r\n",
		".\r\n",
		"250 ok\r\n",
	)

	matches, _, err := conn.Match(protocol.AllDatabases(), protocol.DefaultStrategy(), "word")
	var malformed *protocol.MalformedAnswerError
	require.ErrorAs(t, err, &malformed)
	assert.Nil(t, matches)
	assert.False(t, conn.IsClosed())

	dbs, _, err := conn.ShowDatabases()
	require.NoError(t, err)
	assert.Equal(t, []protocol.Database{{Name: "wn", Desc: "WordNet"}}, dbs)
}

func TestConnection_Match_QuotesWhenNeeded(t *testing.T) {
	conn, mock := newMockConnection("552 no match\r\n")

	_, _, err := conn.Match(protocol.FirstMatch(), protocol.DefaultStrategy(), "ice cream")
	require.Error(t, err)
	assert.Equal(t, "MATCH ! . \"ice cream\"\r\n", mock.GetWrittenRequest())
	assert.True(t, protocol.IsServerError(err, protocol.StatusNoMatch))
}

func TestConnection_Match_InvalidStrategy(t *testing.T) {
	conn, _ := newMockConnection("551 invalid strategy\r\n")

	matches, _, err := conn.Match(protocol.FirstMatch(), protocol.Strategy{Name: "nope"}, "x")
	assert.Nil(t, matches)
	assert.True(t, protocol.IsServerError(err, protocol.StatusInvalidStrategy))
}

func TestConnection_ShowDatabases(t *testing.T) {
	conn, mock := newMockConnection(
		"110 2 databases present\r\n",
		"wn \"WordNet (r) 3.0 (2006)\"\r\n",
		"gcide \"The Collaborative International Dictionary of English v.0.48\"\r\n",
		".\r\n",
		"250 ok\r\n",
	)

	dbs, _, err := conn.ShowDatabases()
	require.NoError(t, err)
	assert.Equal(t, "SHOW DATABASES\r\n", mock.GetWrittenRequest())
	require.Len(t, dbs, 2)
	assert.Equal(t, protocol.Database{Name: "wn", Desc: "WordNet (r) 3.0 (2006)"}, dbs[0])
}

func TestConnection_ShowDatabases_None(t *testing.T) {
	conn, _ := newMockConnection("554 no databases present\r\n")

	_, _, err := conn.ShowDatabases()
	assert.True(t, protocol.IsServerError(err, protocol.StatusNoDatabases))
}

func TestConnection_ShowStrategies(t *testing.T) {
	conn, mock := newMockConnection(
		"111 2 strategies available\r\n",
		"exact \"Match headwords exactly\"\r\n",
		"prefix \"Match prefixes\"\r\n",
		".\r\n",
		"250 ok\r\n",
	)

	strategies, _, err := conn.ShowStrategies()
	require.NoError(t, err)
	assert.Equal(t, "SHOW STRATEGIES\r\n", mock.GetWrittenRequest())
	assert.Equal(t, []protocol.Strategy{
		{Name: "exact", Desc: "Match headwords exactly"},
		{Name: "prefix", Desc: "Match prefixes"},
	}, strategies)
}

func TestConnection_ShowStrategies_MissingOK(t *testing.T) {
	conn, _ := newMockConnection(
		"111 1 strategies available\r\n",
		"exact \"Match headwords exactly\"\r\n",
		".\r\n",
		"111 1 strategies available\r\n",
		".\r\n",
	)

	_, _, err := conn.ShowStrategies()
	var unexpected *protocol.UnexpectedPacketError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, protocol.PacketStrategies, unexpected.Packet.Kind)
}

func TestConnection_Quit(t *testing.T) {
	conn, mock := newMockConnection("221 bye\r\n")

	reply, err := conn.Quit()
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusClosing, reply.Status)
	assert.Equal(t, "QUIT\r\n", mock.GetWrittenRequest())
	assert.True(t, conn.IsClosed())
	assert.True(t, mock.IsClosed())
}

func TestConnection_Quit_ClosesOnError(t *testing.T) {
	conn, mock := newMockConnection("250 ok\r\n")

	_, err := conn.Quit()
	require.Error(t, err)
	assert.True(t, conn.IsClosed())
	assert.True(t, mock.IsClosed())
}

func TestConnection_SendNext(t *testing.T) {
	conn, mock := newMockConnection("250 ok\r\n")

	err := conn.Send(protocol.NewRequest("OPTION", "MIME"))
	require.NoError(t, err)
	assert.Equal(t, "OPTION MIME\r\n", mock.GetWrittenRequest())

	p, err := conn.Next()
	require.NoError(t, err)
	assert.True(t, p.Is(protocol.PacketOK))
}

func TestConnection_InvalidArgumentKeepsConnection(t *testing.T) {
	conn, mock := newMockConnection()

	_, _, err := conn.Define(protocol.FirstMatch(), "bad\r\nQUIT")
	require.Error(t, err)
	assert.False(t, protocol.ShouldCloseConnection(err))
	assert.False(t, conn.IsClosed())
	assert.Empty(t, mock.GetWrittenRequest())
}

func TestConnection_Deadline(t *testing.T) {
	conn, mock := newMockConnection()

	deadline := time.Now().Add(time.Minute)
	require.NoError(t, conn.SetDeadline(deadline))
	assert.Equal(t, deadline, mock.Deadline())
	assert.Equal(t, "127.0.0.1:2628", conn.Addr())
}

func TestConnection_LastUsed(t *testing.T) {
	conn, _ := newMockConnection("250 ok\r\n")
	created := conn.LastUsed()
	assert.WithinDuration(t, time.Now(), created, time.Second)

	_, err := conn.Next()
	require.NoError(t, err)
	assert.False(t, conn.LastUsed().Before(created))
}
