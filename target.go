package dict

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/pior/dict/protocol"
)

// Connection target errors
var (
	ErrMissingParameters = errors.New("dict: missing parameters")
	ErrMissingHost       = errors.New("dict: missing host")
	ErrUnsupported       = errors.New("dict: unsupported url")
)

// UnknownAccessError is returned for a path segment other than "d" or "m".
type UnknownAccessError struct {
	Segment string
}

func (e *UnknownAccessError) Error() string {
	return fmt.Sprintf("dict: unknown access method %q", e.Segment)
}

// ActionKind is what to do once connected.
type ActionKind uint8

const (
	ActionNone ActionKind = iota
	ActionDefine
	ActionMatch
)

func (k ActionKind) String() string {
	switch k {
	case ActionDefine:
		return "define"
	case ActionMatch:
		return "match"
	default:
		return "none"
	}
}

// Action is the initial command encoded in a dict:// URL.
type Action struct {
	Kind     ActionKind
	Word     string
	Database protocol.Database
	Strategy protocol.Strategy // ActionMatch only

	// Nth selects a single result, 1-based. Nil when absent from the URL,
	// 0 when present but not a number.
	Nth *int
}

// Target is a parsed connection target.
type Target struct {
	Host   string
	Port   uint16
	Action Action
}

// ParseTarget parses a connection target of the form
//
//	dict://<host>[:<port>]/[d:<word>[:<db>[:<n>]] | m:<word>[:<db>[:<strategy>[:<n>]]]]
//
// The port defaults to 2628, the database to "!" and the strategy to ".".
// A trailing <n> that is not a number is read as 0 rather than rejected.
//
// Examples:
//
//	dict://dict.org/
//	dict://dict.org/d:shortcake:
//	dict://dict.org:2628/d:shortcake:wn:1
//	dict://dict.org/m:shortcake:*:prefix
func ParseTarget(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("dict: parse target: %w", err)
	}

	if u.Scheme != "dict" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: authentication in url", ErrUnsupported)
	}

	host := u.Hostname()
	if host == "" {
		return nil, ErrMissingHost
	}

	port := uint16(protocol.DefaultPort)
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("dict: parse target port: %w", err)
		}
		port = uint16(n)
	}

	action, err := parseAction(u.EscapedPath())
	if err != nil {
		return nil, err
	}

	return &Target{Host: host, Port: port, Action: action}, nil
}

func parseAction(path string) (Action, error) {
	path, ok := strings.CutPrefix(path, "/")
	if !ok || path == "" {
		return Action{Kind: ActionNone}, nil
	}

	parts := strings.Split(path, ":")
	for i, p := range parts {
		unescaped, err := url.PathUnescape(p)
		if err != nil {
			return Action{}, fmt.Errorf("dict: parse target path: %w", err)
		}
		parts[i] = unescaped
	}

	// field returns the i-th part, or "" when absent
	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	var action Action
	switch parts[0] {
	case "":
		return Action{Kind: ActionNone}, nil
	case "d":
		action = Action{Kind: ActionDefine}
	case "m":
		action = Action{Kind: ActionMatch}
	default:
		return Action{}, &UnknownAccessError{Segment: parts[0]}
	}

	action.Word = field(1)
	if action.Word == "" {
		return Action{}, ErrMissingParameters
	}

	action.Database = protocol.DefaultDatabase()
	if db := field(2); db != "" {
		action.Database = protocol.Database{Name: db}
	}

	nthIndex := 3
	if action.Kind == ActionMatch {
		action.Strategy = protocol.DefaultStrategy()
		if s := field(3); s != "" {
			action.Strategy = protocol.Strategy{Name: s}
		}
		nthIndex = 4
	}

	if nthIndex < len(parts) {
		n, err := strconv.Atoi(parts[nthIndex])
		if err != nil {
			n = 0
		}
		action.Nth = &n
	}

	return action, nil
}

// Addr returns host:port, suitable for net.Dial.
func (t *Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// String renders the target back to a dict:// URL.
func (t *Target) String() string {
	var b strings.Builder
	b.WriteString("dict://")
	if t.Port == protocol.DefaultPort {
		if strings.Contains(t.Host, ":") {
			b.WriteString("[" + t.Host + "]")
		} else {
			b.WriteString(t.Host)
		}
	} else {
		b.WriteString(t.Addr())
	}
	b.WriteString("/")

	a := t.Action
	switch a.Kind {
	case ActionDefine:
		b.WriteString("d:" + escapeField(a.Word) + ":" + escapeField(a.Database.Name))
	case ActionMatch:
		b.WriteString("m:" + escapeField(a.Word) + ":" + escapeField(a.Database.Name) + ":" + escapeField(a.Strategy.Name))
	default:
		return b.String()
	}
	if a.Nth != nil {
		b.WriteString(":" + strconv.Itoa(*a.Nth))
	}
	return b.String()
}

// fieldEscaper keeps the database and strategy sentinels readable and
// escapes the ':' field separator.
var fieldEscaper = strings.NewReplacer("%21", "!", "%2A", "*", ":", "%3A")

// escapeField escapes a path field.
func escapeField(s string) string {
	return fieldEscaper.Replace(url.PathEscape(s))
}
