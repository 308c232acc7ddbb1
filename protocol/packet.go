package protocol

// PacketKind identifies the payload carried by a Packet.
type PacketKind uint8

const (
	// PacketReply is any positive reply without a dedicated kind.
	PacketReply PacketKind = iota
	// PacketOK is 250, the end of a command.
	PacketOK
	// PacketGreeting is 220, sent once on connect.
	PacketGreeting
	// PacketDefinitionsFollow is 150, the start of a DEFINE answer.
	PacketDefinitionsFollow
	// PacketDefinition is 151 with its text block.
	PacketDefinition
	// PacketMatches is 152 with its text block.
	PacketMatches
	// PacketDatabases is 110 with its text block.
	PacketDatabases
	// PacketStrategies is 111 with its text block.
	PacketStrategies
)

func (k PacketKind) String() string {
	switch k {
	case PacketReply:
		return "reply"
	case PacketOK:
		return "ok"
	case PacketGreeting:
		return "greeting"
	case PacketDefinitionsFollow:
		return "definitions-follow"
	case PacketDefinition:
		return "definition"
	case PacketMatches:
		return "matches"
	case PacketDatabases:
		return "databases"
	case PacketStrategies:
		return "strategies"
	default:
		return "unknown"
	}
}

// Packet is a reply together with the typed payload its status implies.
// Only the field matching Kind is set.
type Packet struct {
	Kind  PacketKind
	Reply Reply

	Greeting   Greeting
	Definition Definition
	Matches    []Match
	Databases  []Database
	Strategies []Strategy
}

// Is reports whether the packet is of kind k.
func (p *Packet) Is(k PacketKind) bool {
	return p != nil && p.Kind == k
}
