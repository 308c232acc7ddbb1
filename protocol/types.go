package protocol

// Database is a dictionary database advertised by the server.
type Database struct {
	Name string
	Desc string
}

// AllDatabases searches every database and returns all results.
func AllDatabases() Database {
	return Database{Name: AllDatabasesName, Desc: "All databases"}
}

// FirstMatch searches every database and stops at the first one with a result.
func FirstMatch() Database {
	return Database{Name: FirstMatchName, Desc: "All databases (first match)"}
}

// DefaultDatabase is the database used when none is specified.
func DefaultDatabase() Database {
	return FirstMatch()
}

// Strategy is a matching strategy advertised by the server.
type Strategy struct {
	Name string
	Desc string
}

// DefaultStrategy lets the server pick its default strategy.
func DefaultStrategy() Strategy {
	return Strategy{Name: DefaultStrategyName, Desc: "Server default"}
}

// ExactStrategy matches the word exactly.
func ExactStrategy() Strategy {
	return Strategy{Name: "exact"}
}

// PrefixStrategy matches words starting with the given prefix.
func PrefixStrategy() Strategy {
	return Strategy{Name: "prefix"}
}

// Definition is the body of one 151 reply.
type Definition struct {
	Source Database
	Text   []string
}

// EmptyDefinition is a placeholder shown when there is no definition to display.
func EmptyDefinition() Definition {
	return Definition{
		Source: AllDatabases(),
		Text:   []string{"No definition"},
	}
}

// Match is one entry of a 152 match list.
type Match struct {
	Source Database
	Word   string
}

// Greeting is the decoded 220 banner sent on connect.
//
// Example banner text:
//
//	dict.dict.org dictd 1.12.1/rf on Linux 4.19.0-10-amd64 <auth.mime> <100.1234.1667812345@dict.dict.org>
type Greeting struct {
	Text         string
	Capabilities []string
	MessageID    string
}

// HasCapability reports whether the server advertised capability c.
func (g Greeting) HasCapability(c string) bool {
	for _, have := range g.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}
