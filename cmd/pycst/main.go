package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	pycst "github.com/daios-ai/pycst"
)

const (
	appName     = "pycst"
	historyFile = ".pycst_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

var banner = fmt.Sprintf("pycst %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", pycst.Version)

const helpText = `
REPL commands:
  :quit       Exit the REPL
  :convert    Toggle type-comment conversion of the echoed code (default on)
`

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

// splitInlineComment finds the first unquoted '#' (preceded by space/tab) that
// looks like an inline comment. It ignores '#' inside quoted strings and
// respects backslash escapes. Returns left/code and right/comment (starting at '#').
func splitInlineComment(line string) (left, comment string, ok bool) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]

		if quote != 0 {
			if c == '\\' {
				if i+1 < len(line) {
					i++
				}
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '#':
			if i > 0 && (line[i-1] == ' ' || line[i-1] == '\t') {
				return line[:i], line[i:], true
			}
		}
	}
	return "", "", false
}

// Colorize rendered source:
//   - Lines whose first non-space char is '#' → whole line green.
//   - Other non-empty lines: if they contain an unquoted inline '#' → left blue, trailing comment green.
//   - Otherwise → whole line blue.
//
// Empty lines unchanged.
func colorizeSource(src string) string {
	lines := strings.Split(src, "\n")
	for i, ln := range lines {
		trimLeft := strings.TrimLeft(ln, " \t")
		if strings.HasPrefix(trimLeft, "#") {
			lines[i] = green(ln)
			continue
		}
		if strings.TrimSpace(ln) == "" {
			continue
		}
		if left, comment, ok := splitInlineComment(ln); ok {
			lines[i] = blue(left) + green(comment)
		} else {
			lines[i] = blue(ln)
		}
	}
	return strings.Join(lines, "\n")
}

func main() {
	var verbose bool
	root := &cobra.Command{
		Use:           appName,
		Short:         "Lossless Python concrete-syntax-tree toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-file progress to stderr")
	root.AddCommand(newConvertCmd(), newCheckCmd(), newReplCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the compiled version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pycst %s (built %s)\n", pycst.Version, pycst.BuildDate)
			return nil
		},
	}
}

// -----------------------------------------------------------------------------
// convert
// -----------------------------------------------------------------------------

// config is the optional YAML file accepted by --config.
type config struct {
	// Extra dotted names rendered as bare annotations instead of string
	// literals, on top of the Python builtins namespace.
	UnquotedNames []string `yaml:"unquoted_names"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func newConvertCmd() *cobra.Command {
	var (
		showDiff   bool
		writeBack  bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "convert [file ...]",
		Short: "Rewrite type comments into annotations, preserving all formatting",
		Long: `Rewrite Python 2 style "# type:" comments into PEP 526 annotations.
Untouched code keeps its original bytes. With no files, reads stdin and
writes the converted source to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			opts := []pycst.ConvertOption{}
			if len(cfg.UnquotedNames) > 0 {
				opts = append(opts, pycst.WithUnquotedNames(cfg.UnquotedNames...))
			}

			if len(args) == 0 {
				if writeBack {
					return errors.New("--write requires file arguments")
				}
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				return convertOne(cmd.OutOrStdout(), "<stdin>", string(src), opts, showDiff, false)
			}

			failed := 0
			for _, file := range args {
				raw, err := os.ReadFile(file)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
					failed++
					continue
				}
				if err := convertOne(cmd.OutOrStdout(), file, string(raw), opts, showDiff, writeBack); err != nil {
					fmt.Fprintln(os.Stderr, err.Error())
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "print a unified diff instead of the converted source")
	cmd.Flags().BoolVarP(&writeBack, "write", "w", false, "rewrite files in place")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config with extra unquoted annotation names")
	return cmd
}

func convertOne(out io.Writer, name, src string, opts []pycst.ConvertOption, showDiff, writeBack bool) error {
	converted, err := pycst.ConvertTypeComments(src, opts...)
	if err != nil {
		return pycst.WrapErrorWithName(err, name, src)
	}
	slog.Debug("converted", "file", name, "changed", converted != src)

	switch {
	case showDiff:
		if converted == src {
			return nil
		}
		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(src),
			B:        difflib.SplitLines(converted),
			FromFile: name,
			ToFile:   name + " (converted)",
			Context:  3,
		})
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	case writeBack:
		if converted == src {
			return nil
		}
		info, err := os.Stat(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(name, []byte(converted), info.Mode().Perm()); err != nil {
			return err
		}
		fmt.Fprintln(out, name)
	default:
		fmt.Fprint(out, converted)
	}
	return nil
}

// -----------------------------------------------------------------------------
// check
// -----------------------------------------------------------------------------

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file ...>",
		Short: "Parse files and verify the tree renders back byte for byte",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, file := range args {
				raw, err := os.ReadFile(file)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
					failed++
					continue
				}
				src := string(raw)

				mod, err := pycst.ParseModule(src)
				if err != nil {
					fmt.Fprintln(os.Stderr, pycst.WrapErrorWithName(err, file, src).Error())
					failed++
					continue
				}
				if got := mod.Code(); got != src {
					fmt.Fprintf(os.Stderr, "%s: %s: re-rendered source differs from input\n", appName, file)
					failed++
					continue
				}
				slog.Debug("round-trip ok", "file", file, "bytes", len(src))
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", file)
			}
			if failed > 0 {
				return fmt.Errorf("%d file(s) failed", failed)
			}
			return nil
		},
	}
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactively parse, convert and re-render Python snippets",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			runRepl()
			return nil
		},
	}
}

func runRepl() {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	convert := true

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return
		}

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			switch strings.TrimSpace(strings.ToLower(code)) {
			case ":quit":
				return
			case ":convert":
				convert = !convert
				fmt.Printf("conversion %s\n", map[bool]string{true: "on", false: "off"}[convert])
			default:
				fmt.Print(helpText)
			}
			continue
		}

		if strings.TrimSpace(code) == "" {
			continue
		}

		var rendered string
		var err error
		if convert {
			rendered, err = pycst.ConvertTypeComments(code)
		} else {
			var mod *pycst.Module
			mod, err = pycst.ParseModule(code)
			if err == nil {
				rendered = mod.Code()
			}
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red(pycst.WrapErrorWithSource(err, code).Error()))
			continue
		}
		fmt.Print(colorizeSource(rendered))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readByParseProbe accumulates lines until the buffer parses as a module, or
// until the error stops looking like truncated input. Compound statement
// headers put the probe into continuation mode; a blank line there forces
// submission, matching the usual interactive-Python feel.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 && strings.TrimSpace(line) == "" {
			return b.String() + "\n", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String() + "\n"
		_, perr := pycst.ParseModule(src)
		if perr == nil {
			return src, true
		}
		if isIncomplete(src, perr) {
			continue
		}
		return src, true
	}
}

// isIncomplete reports whether a parse failure is plausibly due to the user
// not being done typing: the parser stopped at or past the last non-blank
// byte of the input (an unterminated bracket, or a compound statement header
// still waiting for its indented body).
func isIncomplete(src string, err error) bool {
	var pe *pycst.ParseError
	if !errors.As(err, &pe) {
		return false
	}
	offset := 0
	for i, ln := range strings.Split(src, "\n") {
		if i+1 >= pe.Line {
			offset += pe.Col
			break
		}
		offset += len(ln) + 1
	}
	return offset >= len(strings.TrimRight(src, " \t\n"))
}
