package protocol

// Request is a single command line.
// This is a low-level container without serialization logic.
type Request struct {
	// Command is the verb, including a fixed sub-command (e.g. "SHOW DATABASES")
	Command CmdType

	// Args are the command parameters, unquoted
	Args []string

	// AlwaysQuote quotes every argument on the wire. When false, an
	// argument is quoted only if it would not survive as a bare atom.
	AlwaysQuote bool
}

// NewRequest creates a request with bare (quote-when-needed) arguments.
func NewRequest(cmd CmdType, args ...string) *Request {
	return &Request{Command: cmd, Args: args}
}

// NewClientRequest builds: CLIENT "<name>"
func NewClientRequest(name string) *Request {
	return &Request{Command: CmdClient, Args: []string{name}, AlwaysQuote: true}
}

// NewDefineRequest builds: DEFINE "<db>" "<word>"
func NewDefineRequest(db Database, word string) *Request {
	return &Request{Command: CmdDefine, Args: []string{db.Name, word}, AlwaysQuote: true}
}

// NewMatchRequest builds: MATCH <db> <strategy> <word>
func NewMatchRequest(db Database, strategy Strategy, word string) *Request {
	return NewRequest(CmdMatch, db.Name, strategy.Name, word)
}

// NewShowDatabasesRequest builds: SHOW DATABASES
func NewShowDatabasesRequest() *Request {
	return NewRequest(CmdShowDatabases)
}

// NewShowStrategiesRequest builds: SHOW STRATEGIES
func NewShowStrategiesRequest() *Request {
	return NewRequest(CmdShowStrategies)
}

// NewQuitRequest builds: QUIT
func NewQuitRequest() *Request {
	return NewRequest(CmdQuit)
}

// String returns the command line without its terminator.
func (r *Request) String() string {
	return string(appendRequest(nil, r))
}
