package protocol

import (
	"bufio"
	"errors"
	"io"
)

// ReadTextBlock reads lines until the "." sentinel line.
// The sentinel is consumed and not returned. Line terminators are stripped.
//
// A stream that ends before the sentinel is a *ConnectionError; no
// partial block is ever returned.
//
// Example block:
//
//	abc
//	def
//	.
func ReadTextBlock(r *bufio.Reader) ([]string, error) {
	lines := make([]string, 0, 8)

	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, &ConnectionError{Op: "read text block", Err: err}
		}

		if line == Sentinel {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// ReadPacket reads the next reply from r and, when its status announces a
// payload, the text block that follows. Exactly one packet is produced per
// call.
//
// Returns:
//   - *ServerError for a negative status (the reply is fully consumed)
//   - *MalformedAnswerError when a reply or payload line misses fields
//     (the payload block is fully consumed)
//   - the errors of ReadReply and ReadTextBlock otherwise
func ReadPacket(r *bufio.Reader) (*Packet, error) {
	reply, err := ReadReply(r)
	if err != nil {
		return nil, err
	}

	p := &Packet{Reply: reply}

	switch reply.Status {
	case StatusOK:
		p.Kind = PacketOK

	case StatusGreeting:
		p.Kind = PacketGreeting
		p.Greeting = parseGreeting(reply.Text)

	case StatusDefinitionsFollow:
		p.Kind = PacketDefinitionsFollow

	case StatusDefinition:
		// 151 "word" database "description"
		text, err := ReadTextBlock(r)
		if err != nil {
			return nil, err
		}
		args := SplitArguments(reply.Text)
		if len(args) < 2 {
			return nil, &MalformedAnswerError{Reason: "missing database name", Reply: reply}
		}
		if len(args) < 3 {
			return nil, &MalformedAnswerError{Reason: "missing database description", Reply: reply}
		}
		p.Kind = PacketDefinition
		p.Definition = Definition{
			Source: Database{Name: args[1], Desc: args[2]},
			Text:   text,
		}

	case StatusMatches:
		// database "word"
		err := readListBlock(r, reply, "database name", "word", func(first, second string) {
			p.Matches = append(p.Matches, Match{Source: Database{Name: first}, Word: second})
		})
		if err != nil {
			return nil, err
		}
		p.Kind = PacketMatches

	case StatusDatabases:
		// name "description"
		err := readListBlock(r, reply, "database name", "database description", func(first, second string) {
			p.Databases = append(p.Databases, Database{Name: first, Desc: second})
		})
		if err != nil {
			return nil, err
		}
		p.Kind = PacketDatabases

	case StatusStrategies:
		// name "description"
		err := readListBlock(r, reply, "strategy name", "strategy description", func(first, second string) {
			p.Strategies = append(p.Strategies, Strategy{Name: first, Desc: second})
		})
		if err != nil {
			return nil, err
		}
		p.Kind = PacketStrategies

	default:
		if !reply.Status.IsPositive() {
			return nil, &ServerError{Reply: reply}
		}
		p.Kind = PacketReply
	}

	return p, nil
}

// readListBlock reads a text block of two-field lines and hands each pair
// to add. The whole block is read before any line is parsed.
func readListBlock(r *bufio.Reader, reply Reply, firstName, secondName string, add func(first, second string)) error {
	lines, err := ReadTextBlock(r)
	if err != nil {
		return err
	}

	for _, line := range lines {
		args := SplitArguments(line)
		if len(args) < 1 {
			return &MalformedAnswerError{Reason: "missing " + firstName, Reply: reply}
		}
		if len(args) < 2 {
			return &MalformedAnswerError{Reason: "missing " + secondName, Reply: reply}
		}
		add(args[0], args[1])
	}

	return nil
}
