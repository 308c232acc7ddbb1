package protocol

import "errors"

// Status parse errors
var (
	ErrInvalidReplyKind = errors.New("dict: invalid reply kind")
	ErrInvalidCategory  = errors.New("dict: invalid reply category")
	ErrMissingErrNr     = errors.New("dict: missing reply number")
)

// ReplyKind is the first digit of a status code.
type ReplyKind uint8

const (
	PositivePreliminary  ReplyKind = iota + 1 // 1yz
	PositiveCompletion                        // 2yz
	PositiveIntermediate                      // 3yz
	NegativeTransient                         // 4yz
	NegativePermanent                         // 5yz
)

func parseReplyKind(c byte) (ReplyKind, error) {
	if c < '1' || c > '5' {
		return 0, ErrInvalidReplyKind
	}
	return ReplyKind(c - '0'), nil
}

func (k ReplyKind) digit() byte {
	return '0' + byte(k)
}

func (k ReplyKind) String() string {
	switch k {
	case PositivePreliminary:
		return "PositivePreliminary"
	case PositiveCompletion:
		return "PositiveCompletion"
	case PositiveIntermediate:
		return "PositiveIntermediate"
	case NegativeTransient:
		return "NegativeTransient"
	case NegativePermanent:
		return "NegativePermanent"
	default:
		return "ReplyKind(?)"
	}
}

// Category is the second digit of a status code.
type Category uint8

const (
	Syntax Category = iota
	Information
	Connection
	Authentication
	Unspecified
	System
	Nonstandard
)

var categoryDigits = [...]byte{
	Syntax:         '0',
	Information:    '1',
	Connection:     '2',
	Authentication: '3',
	Unspecified:    '4',
	System:         '5',
	Nonstandard:    '8',
}

func parseCategory(c byte) (Category, error) {
	switch {
	case c >= '0' && c <= '5':
		return Category(c - '0'), nil
	case c == '8':
		return Nonstandard, nil
	default:
		return 0, ErrInvalidCategory
	}
}

func (c Category) String() string {
	switch c {
	case Syntax:
		return "Syntax"
	case Information:
		return "Information"
	case Connection:
		return "Connection"
	case Authentication:
		return "Authentication"
	case Unspecified:
		return "Unspecified"
	case System:
		return "System"
	case Nonstandard:
		return "Nonstandard"
	default:
		return "Category(?)"
	}
}

// Status is a decoded 3-digit reply code.
//
// The zero value is not a valid status.
type Status struct {
	Kind     ReplyKind
	Category Category
	Code     uint8 // 0-9
}

// ParseStatus decodes a 3-character status code such as "250".
//
// Only the first three bytes are looked at. The number is checked before
// the kind and category digits, so any input shorter than three bytes
// fails with ErrMissingErrNr once the first two are present.
func ParseStatus(s string) (Status, error) {
	if len(s) < 1 {
		return Status{}, ErrInvalidReplyKind
	}
	if len(s) < 2 {
		return Status{}, ErrInvalidCategory
	}
	if len(s) < 3 || s[2] < '0' || s[2] > '9' {
		return Status{}, ErrMissingErrNr
	}

	kind, err := parseReplyKind(s[0])
	if err != nil {
		return Status{}, err
	}
	category, err := parseCategory(s[1])
	if err != nil {
		return Status{}, err
	}

	return Status{Kind: kind, Category: category, Code: s[2] - '0'}, nil
}

// String formats the status back to its 3-character wire form.
func (s Status) String() string {
	if !s.valid() {
		return "???"
	}
	return string([]byte{s.Kind.digit(), categoryDigits[s.Category], '0' + s.Code})
}

func (s Status) valid() bool {
	return s.Kind >= PositivePreliminary && s.Kind <= NegativePermanent &&
		s.Category <= Nonstandard && s.Code <= 9
}

// IsPositive reports whether the status belongs to one of the positive kinds (1yz, 2yz, 3yz).
func (s Status) IsPositive() bool {
	switch s.Kind {
	case PositivePreliminary, PositiveCompletion, PositiveIntermediate:
		return true
	default:
		return false
	}
}

// IsStartOfSession reports whether the status is the connection greeting (220).
func (s Status) IsStartOfSession() bool {
	return s == StatusGreeting
}
