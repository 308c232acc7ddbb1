package protocol

import "strings"

// SplitArguments splits reply text into whitespace-separated fields,
// keeping double-quoted multi-word fields together.
//
// A field starting with `"` opens a quoted span that runs until a field
// ending with `"`. The words of the span are joined with single spaces and
// the surrounding quotes are dropped:
//
//	SplitArguments(`word1 "multi word field" word2`)
//	// []string{"word1", "multi word field", "word2"}
//
// A span still open at the end of the text is dropped without error, so
// callers see a missing field rather than a partial one.
func SplitArguments(text string) []string {
	var (
		args    []string
		span    strings.Builder
		inQuote bool
	)

	for _, part := range strings.Fields(text) {
		if !inQuote {
			rest, quoted := strings.CutPrefix(part, `"`)
			if !quoted {
				args = append(args, part)
				continue
			}
			if word, closed := strings.CutSuffix(rest, `"`); closed {
				args = append(args, word)
				continue
			}
			inQuote = true
			span.WriteString(rest)
			continue
		}

		span.WriteString(Space)
		if word, closed := strings.CutSuffix(part, `"`); closed {
			span.WriteString(word)
			args = append(args, span.String())
			span.Reset()
			inQuote = false
			continue
		}
		span.WriteString(part)
	}

	return args
}

// parseGreeting extracts capabilities and the message id from a 220 banner.
// The message id is the last <...> group containing '@'; a group without
// '@' holds the dot-separated capability list.
func parseGreeting(text string) Greeting {
	g := Greeting{Text: text}

	rest := text
	for {
		start := strings.IndexByte(rest, '<')
		if start == -1 {
			break
		}
		end := strings.IndexByte(rest[start:], '>')
		if end == -1 {
			break
		}
		group := rest[start : start+end+1]
		rest = rest[start+end+1:]

		if strings.Contains(group, "@") {
			g.MessageID = group
			continue
		}
		for _, c := range strings.Split(strings.Trim(group, "<>"), ".") {
			if c != "" {
				g.Capabilities = append(g.Capabilities, c)
			}
		}
	}

	return g
}
