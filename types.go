package dict

import "github.com/pior/dict/protocol"

// Aliases so callers of the client rarely need to import protocol.
type (
	Database   = protocol.Database
	Strategy   = protocol.Strategy
	Definition = protocol.Definition
	Match      = protocol.Match
	Greeting   = protocol.Greeting
)

// Well-known database and strategy selectors, and the empty definition.
var (
	AllDatabases    = protocol.AllDatabases
	FirstMatch      = protocol.FirstMatch
	DefaultDatabase = protocol.DefaultDatabase
	DefaultStrategy = protocol.DefaultStrategy
	ExactStrategy   = protocol.ExactStrategy
	PrefixStrategy  = protocol.PrefixStrategy
	EmptyDefinition = protocol.EmptyDefinition
)
