// Package interactive provides the interactive shell over a resolved catalog.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/xdfexport/xdfexport-go/pkg/export"
	"github.com/xdfexport/xdfexport-go/pkg/inspect"
	"github.com/xdfexport/xdfexport-go/pkg/pipeline"
)

// Shell browses one definition resolved against one firmware image.
type Shell struct {
	req       pipeline.Request
	opts      []pipeline.Option
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	out       io.Writer
}

// New creates a shell writing to out. Call Load before Execute.
func New(req pipeline.Request, out io.Writer, opts ...pipeline.Option) *Shell {
	return &Shell{
		req:       req,
		opts:      opts,
		formatter: inspect.NewFormatter(),
		out:       out,
	}
}

// Load parses and resolves the catalog, replacing any previous one.
func (s *Shell) Load(ctx context.Context) error {
	cat, res, err := pipeline.Resolve(ctx, s.req, s.opts...)
	if err != nil {
		return err
	}
	s.inspector = inspect.NewInspector(cat)
	fmt.Fprintf(s.out, "Loaded %s: %s (%d unresolved)\n", s.req.Definition, res.Counts, res.Report.Unresolved)
	return nil
}

// Run starts the interactive command loop. It returns when the user quits,
// input ends, or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "xdf> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	s.out = rl.Stdout()
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}

		if quit := s.Execute(ctx, line); quit {
			return nil
		}
	}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("summary"),
		readline.PcItem("list",
			readline.PcItem("constants"),
			readline.PcItem("flags"),
			readline.PcItem("tables"),
		),
		readline.PcItem("show"),
		readline.PcItem("find"),
		readline.PcItem("unresolved"),
		readline.PcItem("export"),
		readline.PcItem("meta",
			readline.PcItem("on"),
			readline.PcItem("off"),
		),
		readline.PcItem("reload"),
		readline.PcItem("quit"),
	)
}

// Execute runs one command line and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	cmd, arg, _ := strings.Cut(input, " ")
	cmd = strings.ToLower(cmd)
	arg = strings.TrimSpace(arg)

	if s.inspector == nil && cmd != "help" && cmd != "?" && cmd != "reload" && !isQuit(cmd) {
		fmt.Fprintln(s.out, "No catalog loaded (use 'reload')")
		return false
	}

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "summary", "info":
		fmt.Fprint(s.out, s.formatter.FormatSummary(s.inspector.Summarize()))

	case "list", "ls", "l":
		s.cmdList(arg)

	case "show", "s":
		s.cmdShow(arg)

	case "find", "f":
		s.cmdFind(arg)

	case "unresolved", "u":
		fmt.Fprint(s.out, s.formatter.FormatList(s.inspector.Unresolved()))

	case "export", "e":
		s.cmdExport(ctx, arg)

	case "meta":
		s.cmdMeta(arg)

	case "reload", "r":
		if err := s.Load(ctx); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}

	default:
		if isQuit(cmd) {
			fmt.Fprintln(s.out, "Exiting...")
			return true
		}
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func isQuit(cmd string) bool {
	return cmd == "quit" || cmd == "exit" || cmd == "q"
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Definition Shell Commands:
  Browsing:
    summary            - Show counts and categories
    list [scope]       - List elements (scope: constants, flags, tables or a category)
    show <path>        - Show one element (path: title, scope/title or @address)
    find <text>        - Search titles and descriptions
    unresolved         - List elements that could not be resolved

  Output:
    export [fmt...]    - Write the current definition (default: configured formats)
    meta on|off        - Toggle type, scaling and status details

  Session:
    reload             - Re-read the definition and firmware
    help               - Show this help
    quit               - Exit`)
}

func (s *Shell) cmdList(arg string) {
	if arg == "" {
		sum := s.inspector.Summarize()
		fmt.Fprintf(s.out, "Categories (%d):\n", len(sum.Categories))
		for _, c := range sum.Categories {
			fmt.Fprintln(s.out, s.formatter.Indent(1, fmt.Sprintf("%s (%d)", c.Name, c.Count)))
		}
		return
	}

	elems, err := s.inspector.Lookup(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatList(elems))
}

func (s *Shell) cmdShow(arg string) {
	if arg == "" {
		fmt.Fprintln(s.out, "Usage: show <path>")
		fmt.Fprintln(s.out, "  Example: show tables/Fuel Map")
		return
	}

	elems, err := s.inspector.Lookup(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	for i, e := range elems {
		if i > 0 {
			fmt.Fprintln(s.out)
		}
		fmt.Fprint(s.out, s.formatter.FormatElement(e))
	}
}

func (s *Shell) cmdFind(arg string) {
	if arg == "" {
		fmt.Fprintln(s.out, "Usage: find <text>")
		return
	}
	found := s.inspector.Search(arg)
	fmt.Fprintf(s.out, "%d match(es):\n", len(found))
	fmt.Fprint(s.out, s.formatter.FormatList(found))
}

func (s *Shell) cmdMeta(arg string) {
	switch strings.ToLower(arg) {
	case "on":
		s.formatter.ShowMetadata = true
	case "off":
		s.formatter.ShowMetadata = false
	default:
		fmt.Fprintln(s.out, "Usage: meta on|off")
		return
	}
	fmt.Fprintf(s.out, "Metadata: %s\n", arg)
}

func (s *Shell) cmdExport(ctx context.Context, arg string) {
	req := s.req
	if arg != "" {
		req.Formats = strings.Fields(arg)
	}
	for _, f := range req.Formats {
		if _, err := export.Lookup(f); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
	}

	res, err := pipeline.Run(ctx, req, s.opts...)
	if err != nil {
		fmt.Fprintf(s.out, "Export failed: %v\n", err)
		return
	}
	for _, f := range res.Files {
		fmt.Fprintf(s.out, "Wrote %s\n", f)
	}
	if err := res.Err(); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
}
