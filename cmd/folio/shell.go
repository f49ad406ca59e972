package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/dshills/folio/internal/editor"
	"github.com/dshills/folio/internal/engine/treemodel"
	"github.com/dshills/folio/internal/script"
)

// errQuit ends the shell loop.
var errQuit = errors.New("quit")

// shell is the interactive command loop.
type shell struct {
	rl  *readline.Instance
	out io.Writer
	ed  *editor.Editor
	rt  *script.Runtime
}

func newShell(stdout io.Writer) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "folio> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("help"), readline.PcItem("insert"), readline.PcItem("element"),
			readline.PcItem("select"), readline.PcItem("selectall"), readline.PcItem("type"),
			readline.PcItem("exec"), readline.PcItem("state"), readline.PcItem("undo"),
			readline.PcItem("redo"), readline.PcItem("dump"), readline.PcItem("show"),
			readline.PcItem("text"), readline.PcItem("load"), readline.PcItem("save"),
			readline.PcItem("lua"), readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{rl: rl, out: rl.Stdout()}, nil
}

func (s *shell) attach(ed *editor.Editor, rt *script.Runtime) {
	s.ed = ed
	s.rt = rt
}

// Stdout returns a writer that coordinates with the prompt.
func (s *shell) Stdout() io.Writer {
	return s.out
}

// Stderr returns a writer that coordinates with the prompt.
func (s *shell) Stderr() io.Writer {
	if s.rl != nil {
		return s.rl.Stderr()
	}
	return os.Stderr
}

// Close releases the terminal and the script runtime.
func (s *shell) Close() error {
	if s.rt != nil {
		s.rt.Close()
	}
	if s.rl != nil {
		return s.rl.Close()
	}
	return nil
}

// Run reads commands until quit, EOF or ctx is done.
func (s *shell) Run(ctx context.Context) error {
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}

		if err := s.handle(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				fmt.Fprintln(s.out, "Exiting...")
				return nil
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// handle runs one shell command line.
func (s *shell) handle(ctx context.Context, line string) error {
	input := strings.TrimSpace(line)
	if input == "" {
		return nil
	}

	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		s.printHelp()
		return nil

	case "insert", "i":
		if len(args) < 2 {
			return errors.New("usage: insert <path> <text> [key=value ...]")
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		attrs, err := parseAttrs(args[2:])
		if err != nil {
			return err
		}
		return s.ed.InsertText(path, args[1], attrs)

	case "element", "e":
		if len(args) < 2 {
			return errors.New("usage: element <path> <name> [text]")
		}
		path, err := parsePath(args[0])
		if err != nil {
			return err
		}
		return s.ed.InsertElement(path, args[1], nil, strings.Join(args[2:], " "))

	case "select", "sel":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: select <from> [to]")
		}
		from, err := parsePath(args[0])
		if err != nil {
			return err
		}
		var to []int
		if len(args) == 2 {
			if to, err = parsePath(args[1]); err != nil {
				return err
			}
		}
		return s.ed.Select(from, to)

	case "selectall":
		return s.ed.SelectAll()

	case "type", "t":
		if rest == "" {
			return errors.New("usage: type <text>")
		}
		return s.ed.Type(rest)

	case "exec", "x":
		if len(args) < 1 || len(args) > 2 {
			return errors.New("usage: exec <command> [on|off]")
		}
		if len(args) == 2 {
			force, err := parseSwitch(args[1])
			if err != nil {
				return err
			}
			return s.ed.Execute(args[0], force)
		}
		return s.ed.Execute(args[0])

	case "state":
		names := args
		if len(names) == 0 {
			names = s.ed.CommandNames()
		}
		for _, name := range names {
			enabled, value, err := s.ed.CommandState(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%-10s enabled=%-5t value=%t\n", name, enabled, value)
		}
		return nil

	case "undo", "u":
		return s.ed.Undo()

	case "redo", "r":
		return s.ed.Redo()

	case "dump":
		data, err := s.ed.Dump()
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, string(data))
		return nil

	case "show":
		fmt.Fprintln(s.out, s.ed.Markup())
		for _, r := range s.ed.Selection() {
			fmt.Fprintf(s.out, "selection %s\n", r)
		}
		return nil

	case "text":
		fmt.Fprintln(s.out, s.ed.Text())
		return nil

	case "load":
		if len(args) != 1 {
			return errors.New("usage: load <file.json>")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return s.ed.Load(data)

	case "save":
		if len(args) != 1 {
			return errors.New("usage: save <file.json>")
		}
		data, err := s.ed.Dump()
		if err != nil {
			return err
		}
		return os.WriteFile(args[0], append(data, '\n'), 0o644)

	case "lua", "l":
		if rest == "" {
			return errors.New("usage: lua <code>")
		}
		return s.rt.DoString(ctx, rest)

	case "quit", "exit", "q":
		return errQuit

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", cmd)
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.out, `
folio shell commands:
  Editing:
    insert <path> <text> [k=v ...]  - Insert text with attributes
    element <path> <name> [text]    - Insert an element
    type <text>                     - Type at the selection
    exec <command> [on|off]         - Run an attribute command
    undo / redo                     - Step through history

  Selection:
    select <from> [to]              - Set the selection
    selectall                       - Select the whole document
    state [command ...]             - Show command state

  Document:
    show                            - Print markup and selection
    text                            - Print plain text
    dump                            - Print the JSON tree
    load <file> / save <file>       - Read or write a JSON tree

  General:
    lua <code>                      - Run Lua against the editor
    help                            - Show this help
    quit                            - Exit

  Path Format:
    comma separated offsets from the root, e.g. 0 or 0,3`)
}

// parsePath parses "0,3" into a position path.
func parsePath(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	path := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", s, err)
		}
		path = append(path, n)
	}
	return path, nil
}

// parseAttrs parses key=value pairs. A bare key means true; "true" and
// "false" become booleans and integers become int64.
func parseAttrs(args []string) (treemodel.Attributes, error) {
	if len(args) == 0 {
		return nil, nil
	}
	attrs := make(treemodel.Attributes, len(args))
	for _, arg := range args {
		key, val, hasVal := strings.Cut(arg, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid attribute %q", arg)
		}
		switch {
		case !hasVal:
			attrs[key] = true
		case val == "true" || val == "false":
			attrs[key] = val == "true"
		default:
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				attrs[key] = n
			} else {
				attrs[key] = val
			}
		}
	}
	return attrs, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch %q (want on or off)", s)
	}
}
