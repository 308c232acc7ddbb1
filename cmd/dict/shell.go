package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pior/dict"
	"github.com/pior/dict/protocol"
)

const shellHelp = `Commands:
  define <word>        - Define a word in the current database
  match <word>         - List words matching with the current strategy
  databases            - List the server databases
  strategies           - List the server match strategies
  use [<db>]           - Show or select the database ("*" all, "!" first match)
  strategy [<name>]    - Show or select the match strategy ("." server default)
  stats                - Show client statistics
  help                 - Show this help
  quit                 - Exit
`

// shell runs interactive commands against a client.
type shell struct {
	client   *dict.Client
	out      io.Writer
	timeout  time.Duration
	database dict.Database
	strategy dict.Strategy
}

func newShell(client *dict.Client, out io.Writer, cfg cliConfig) *shell {
	return &shell{
		client:   client,
		out:      out,
		timeout:  cfg.Timeout,
		database: databaseFromName(cfg.Database),
		strategy: strategyFromName(cfg.Strategy),
	}
}

func databaseFromName(name string) dict.Database {
	switch name {
	case protocol.AllDatabasesName:
		return dict.AllDatabases()
	case protocol.FirstMatchName, "":
		return dict.FirstMatch()
	}
	return dict.Database{Name: name}
}

func strategyFromName(name string) dict.Strategy {
	if name == protocol.DefaultStrategyName || name == "" {
		return dict.DefaultStrategy()
	}
	return dict.Strategy{Name: name}
}

func (s *shell) prompt() string {
	return fmt.Sprintf("dict %s> ", s.database.Name)
}

// run reads commands until quit or end of input.
func (s *shell) run(ctx context.Context, le *lineEditor) error {
	for {
		line, err := le.getLine(s.prompt())
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if !s.exec(ctx, line) {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should go on.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := protocol.SplitArguments(strings.TrimSpace(line))
	if len(fields) == 0 {
		return true
	}

	command := strings.ToLower(fields[0])
	args := fields[1:]

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	switch command {
	case "define", "d":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: define <word>")
			return true
		}
		s.define(ctx, strings.Join(args, " "))

	case "match", "m":
		if len(args) == 0 {
			fmt.Fprintln(s.out, "Usage: match <word>")
			return true
		}
		s.match(ctx, strings.Join(args, " "))

	case "databases", "dbs":
		dbs, err := s.client.ShowDatabases(ctx)
		if err != nil {
			s.printError(err)
			return true
		}
		for _, db := range dbs {
			fmt.Fprintf(s.out, "%-20s %s\n", db.Name, db.Desc)
		}

	case "strategies":
		strategies, err := s.client.ShowStrategies(ctx)
		if err != nil {
			s.printError(err)
			return true
		}
		for _, st := range strategies {
			fmt.Fprintf(s.out, "%-20s %s\n", st.Name, st.Desc)
		}

	case "use":
		if len(args) > 0 {
			s.database = databaseFromName(args[0])
		}
		fmt.Fprintf(s.out, "Database: %s\n", s.database.Name)

	case "strategy":
		if len(args) > 0 {
			s.strategy = strategyFromName(args[0])
		}
		fmt.Fprintf(s.out, "Strategy: %s\n", s.strategy.Name)

	case "stats":
		s.printStats()

	case "help", "?":
		fmt.Fprint(s.out, shellHelp)

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s. Type 'help' for available commands.\n", command)
	}

	return true
}

func (s *shell) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *shell) define(ctx context.Context, word string) {
	defs, err := s.client.Define(ctx, s.database, word)
	if err != nil {
		s.printError(err)
		return
	}
	printDefinitions(s.out, defs)
}

func (s *shell) match(ctx context.Context, word string) {
	matches, err := s.client.Match(ctx, s.database, s.strategy, word)
	if err != nil {
		s.printError(err)
		return
	}
	printMatches(s.out, matches)
}

func (s *shell) printError(err error) {
	fmt.Fprintf(s.out, "Error: %s\n", describeError(err))
}

func (s *shell) printStats() {
	st := s.client.Stats()
	fmt.Fprintf(s.out, "Server:          %s\n", s.client.Addr())
	fmt.Fprintf(s.out, "Defines:         %d\n", st.Defines)
	fmt.Fprintf(s.out, "Matches:         %d\n", st.Matches)
	fmt.Fprintf(s.out, "Shows:           %d\n", st.Shows)
	fmt.Fprintf(s.out, "Cache hits:      %d\n", st.CacheHits)
	fmt.Fprintf(s.out, "Server errors:   %d\n", st.ServerErrors)
	fmt.Fprintf(s.out, "Errors:          %d\n", st.Errors)
	fmt.Fprintf(s.out, "Connections:     %d dialed, %d discarded\n", st.Lease.CreatedConns, st.Lease.DestroyedConns)
	fmt.Fprintf(s.out, "Circuit breaker: %s\n", st.CircuitBreakerState)
}

// describeError turns the common server refusals into plain messages.
func describeError(err error) string {
	switch {
	case protocol.IsServerError(err, protocol.StatusNoMatch):
		return "no match"
	case protocol.IsServerError(err, protocol.StatusInvalidDatabase):
		return "invalid database, use 'databases' to list them"
	case protocol.IsServerError(err, protocol.StatusInvalidStrategy):
		return "invalid strategy, use 'strategies' to list them"
	case protocol.IsServerError(err, protocol.StatusNoDatabases):
		return "no databases present"
	case protocol.IsServerError(err, protocol.StatusNoStrategies):
		return "no strategies available"
	}
	return err.Error()
}

func printDefinitions(out io.Writer, defs []dict.Definition) {
	if len(defs) == 0 {
		for _, line := range dict.EmptyDefinition().Text {
			fmt.Fprintln(out, line)
		}
		return
	}

	for i, def := range defs {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%d. From %s [%s]:\n\n", i+1, def.Source.Desc, def.Source.Name)
		for _, line := range def.Text {
			fmt.Fprintln(out, line)
		}
	}
}

func printMatches(out io.Writer, matches []dict.Match) {
	for i, m := range matches {
		fmt.Fprintf(out, "%d. %s: %s\n", i+1, m.Source.Name, m.Word)
	}
}
