package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/querychain/internal/codec"
	"github.com/roach88/querychain/internal/ir"
	"github.com/roach88/querychain/internal/query"
)

const replHelp = `Methods:
  <method> [json-args...]   chain or call a method, e.g. where "status" "paid"
Commands:
  :describe                 print the chain
  :json | :yaml             print the chain encoded
  :hash                     print the chain hash
  :undo                     drop the last step
  :reset                    drop every step
  :save <name>              store the chain
  :methods                  list chainable and terminal methods
  :help                     show this help
  :quit                     leave`

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl <resource>",
		Short: "Build a chain interactively",
		Long: `Start an interactive shell on a catalog resource. Each line names a method
followed by its arguments as JSON values. Chainable methods extend the
chain, terminal methods run it against the database.

  Order> where "status" "paid"
  Order.where("status", "paid")
  Order> count
  2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(rootOpts, args[0], cmd)
		},
	}
}

func runRepl(opts *RootOptions, resource string, cmd *cobra.Command) error {
	if err := opts.setup(cmd); err != nil {
		return err
	}
	formatter := opts.formatter(cmd)

	ws, err := opts.openWorkspace(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to open workspace", err)
	}
	defer ws.Close()

	session, err := newReplSession(cmd.Context(), opts, ws, resource, cmd.OutOrStdout())
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to start", err)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(session.complete)

	for {
		input, err := line.Prompt(session.prompt())
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if session.exec(input) {
			return nil
		}
	}
}

// replSession holds the chain being built. exec never fails; errors are
// printed and the chain is left unchanged.
type replSession struct {
	ctx  context.Context
	opts *RootOptions
	ws   *workspace
	rec  *query.Recorder
	out  io.Writer
}

func newReplSession(ctx context.Context, opts *RootOptions, ws *workspace, resource string, out io.Writer) (*replSession, error) {
	rec, err := query.Create(ws.resolver, ir.ResourceRef(resource))
	if err != nil {
		return nil, err
	}
	return &replSession{ctx: ctx, opts: opts, ws: ws, rec: rec, out: out}, nil
}

func (s *replSession) prompt() string {
	return s.rec.Resource().DisplayName() + "> "
}

// complete suggests method and command names for the first word.
func (s *replSession) complete(line string) []string {
	if strings.ContainsAny(line, " \t") {
		return nil
	}
	caps := s.rec.Resource().Capabilities()
	candidates := append(caps.Chainable.Names(), caps.Terminal.Names()...)
	candidates = append(candidates, ":describe", ":json", ":yaml", ":hash", ":undo", ":reset", ":save", ":methods", ":help", ":quit")

	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// exec runs one input line and reports whether the session should end.
func (s *replSession) exec(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	if strings.HasPrefix(name, ":") {
		return s.command(name, rest)
	}

	args, err := parseReplArgs(rest)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}

	res, err := s.rec.Dispatch(s.ctx, name, args...)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	if res.Kind == query.KindChained {
		s.rec = res.Recorder
		fmt.Fprintln(s.out, s.rec.Describe())
		return false
	}

	value, err := ir.FromGo(res.Value)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	fmt.Fprintln(s.out, ir.Inspect(value))
	return false
}

func (s *replSession) command(name, rest string) bool {
	switch name {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(s.out, replHelp)
	case ":describe":
		fmt.Fprintln(s.out, s.rec.Describe())
	case ":json", ":yaml":
		f := codec.FormatJSON
		if name == ":yaml" {
			f = codec.FormatYAML
		}
		data, err := s.rec.Serialize(f)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		fmt.Fprint(s.out, string(trailingNewline(data)))
	case ":hash":
		hash, err := s.rec.Hash()
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintln(s.out, hash)
	case ":undo":
		doc := s.rec.Document()
		if len(doc.Chain) == 0 {
			fmt.Fprintln(s.out, "error: chain is empty")
			return false
		}
		doc.Chain = doc.Chain[:len(doc.Chain)-1]
		rec, err := query.FromDocument(s.ws.resolver, doc, s.opts.queryOptions()...)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		s.rec = rec
		fmt.Fprintln(s.out, s.rec.Describe())
	case ":reset":
		s.rec = query.New(s.rec.Resource())
		fmt.Fprintln(s.out, s.rec.Describe())
	case ":save":
		if rest == "" {
			fmt.Fprintln(s.out, "error: :save needs a name")
			return false
		}
		s.save(rest)
	case ":methods":
		caps := s.rec.Resource().Capabilities()
		fmt.Fprintf(s.out, "chainable: %s\n", strings.Join(caps.Chainable.Names(), " "))
		fmt.Fprintf(s.out, "terminal:  %s\n", strings.Join(caps.Terminal.Names(), " "))
	default:
		fmt.Fprintf(s.out, "error: unknown command %s (try :help)\n", name)
	}
	return false
}

func (s *replSession) save(name string) {
	st, err := s.opts.openStore()
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	defer st.Close()

	saved, err := st.Save(s.ctx, name, s.rec.Document())
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "saved %s (%s)\n", saved.Name, shortHash(saved.ChainHash))
}

// parseReplArgs reads whitespace-separated JSON values.
func parseReplArgs(s string) ([]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var args []any
	for {
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return args, nil
		}
		if err != nil {
			return nil, fmt.Errorf("arguments must be JSON values: %w", err)
		}
		v, err := ir.UnmarshalIRValue(bytes.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", len(args)+1, err)
		}
		args = append(args, v)
	}
}
