package protocol

// Protocol delimiters
const (
	// CRLF terminates every command line sent to the server
	CRLF = "\r\n"

	// Space separates command tokens
	Space = " "

	// Sentinel is the line that terminates a text block
	Sentinel = "."

	// DefaultPort is the IANA port assigned to the DICT protocol
	DefaultPort = 2628
)

// CmdType represents a DICT command verb (possibly with a fixed sub-command).
type CmdType string

// Commands
//
// Wire formats:
//
//	CLIENT "<name>"
//	DEFINE "<db>" "<word>"
//	MATCH <db> <strategy> <word>
//	SHOW DATABASES
//	SHOW STRATEGIES
//	QUIT
const (
	// CmdClient identifies the client to the server. Expects 250.
	CmdClient CmdType = "CLIENT"

	// CmdDefine looks up a word. Expects 150, then one 151 + text block per
	// definition, then 250. A miss is 552.
	CmdDefine CmdType = "DEFINE"

	// CmdMatch searches words with a strategy. Expects 152 + text block,
	// then 250. A miss is 552.
	CmdMatch CmdType = "MATCH"

	// CmdShowDatabases lists the server databases. Expects 110 + text block,
	// then 250. No databases is 554.
	CmdShowDatabases CmdType = "SHOW DATABASES"

	// CmdShowStrategies lists the server strategies. Expects 111 + text
	// block, then 250. No strategies is 555.
	CmdShowStrategies CmdType = "SHOW STRATEGIES"

	// CmdQuit closes the session. Expects 221.
	CmdQuit CmdType = "QUIT"
)

// Well-known statuses.
var (
	StatusDatabases         = Status{PositivePreliminary, Information, 0} // 110
	StatusStrategies        = Status{PositivePreliminary, Information, 1} // 111
	StatusDefinitionsFollow = Status{PositivePreliminary, System, 0}      // 150
	StatusDefinition        = Status{PositivePreliminary, System, 1}      // 151
	StatusMatches           = Status{PositivePreliminary, System, 2}      // 152
	StatusGreeting          = Status{PositiveCompletion, Connection, 0}   // 220
	StatusClosing           = Status{PositiveCompletion, Connection, 1}   // 221
	StatusOK                = Status{PositiveCompletion, System, 0}       // 250

	StatusInvalidDatabase = Status{NegativePermanent, System, 0} // 550
	StatusInvalidStrategy = Status{NegativePermanent, System, 1} // 551
	StatusNoMatch         = Status{NegativePermanent, System, 2} // 552
	StatusNoDatabases     = Status{NegativePermanent, System, 4} // 554
	StatusNoStrategies    = Status{NegativePermanent, System, 5} // 555
)

// Sentinel names understood by servers in place of a database or strategy.
const (
	AllDatabasesName    = "*"
	FirstMatchName      = "!"
	DefaultStrategyName = "."
)
