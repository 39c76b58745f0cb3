// Command nanolisp is the CLI bootstrap and REPL surface: read one input
// line, call the parser then the evaluator, call the printer on the
// result, emit it.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nanolisp/nanolisp/internal/env"
	"github.com/nanolisp/nanolisp/internal/eval"
	"github.com/nanolisp/nanolisp/internal/lisperr"
	"github.com/nanolisp/nanolisp/internal/plugin"
	"github.com/nanolisp/nanolisp/internal/printer"
	"github.com/nanolisp/nanolisp/internal/reader"
	"github.com/nanolisp/nanolisp/internal/token"
	"github.com/nanolisp/nanolisp/internal/value"
	"github.com/nanolisp/nanolisp/plugins/hash"
	"github.com/nanolisp/nanolisp/plugins/history"
	"github.com/nanolisp/nanolisp/plugins/print"
)

// evalMu serializes all evaluation against the shared root env: the
// evaluator's refcounts and env maps are only valid single-threaded, and
// --watch reloads files from a separate goroutine.
var evalMu sync.Mutex

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		loadPaths []string
		watch     bool
		dumpAST   string
		noStock   bool
		plugins   []string
	)

	cmd := &cobra.Command{
		Use:           "nanolisp",
		Short:         "A small Lisp interpreter",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), loadPaths, watch, dumpAST, noStock, plugins)
		},
	}

	cmd.Flags().StringArrayVar(&loadPaths, "load", nil, "load and evaluate a file before starting the REPL (repeatable)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload --load files with fsnotify on change")
	cmd.Flags().StringVar(&dumpAST, "dump-ast", "", "dump the parsed tree of the first form in the first --load file (sexpr|cbor) and exit")
	cmd.Flags().BoolVar(&noStock, "no-stock", false, "skip installing the stock fnTable")
	cmd.Flags().StringArrayVar(&plugins, "plugin", nil, "enable a bundled demo plugin (repeatable): history, hash, print")

	return cmd
}

func run(out io.Writer, loadPaths []string, watch bool, dumpAST string, noStock bool, pluginNames []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	eval.SetLogger(logger)

	if dumpAST != "" {
		return runDumpAST(out, loadPaths, dumpAST)
	}

	var root *env.Env
	if noStock {
		root = env.NewRoot(nil)
	} else {
		root = eval.NewRoot(nil)
	}

	registry := plugin.NewRegistry()
	var hist *history.Plugin
	for _, name := range pluginNames {
		p, err := resolvePlugin(name)
		if err != nil {
			return err
		}
		if err := registry.Register(root, p); err != nil {
			return err
		}
		if h, ok := p.(*history.Plugin); ok {
			hist = h
		}
	}

	for _, path := range loadPaths {
		if err := loadFile(root, path); err != nil {
			printErr(out, err)
		}
	}

	if watch && len(loadPaths) > 0 {
		go watchFiles(root, loadPaths)
	}

	repl(os.Stdin, out, root, hist)
	return nil
}

// runDumpAST implements --dump-ast: parse the first top-level form of
// the first --load file and write its tree to out in the requested
// format, then return (the caller exits without starting a REPL). Any
// later forms in the file are not dumped.
func runDumpAST(out io.Writer, loadPaths []string, format string) error {
	if len(loadPaths) == 0 {
		return fmt.Errorf("--dump-ast requires at least one --load path")
	}
	b, err := os.ReadFile(loadPaths[0])
	if err != nil {
		return lisperr.Wrap(lisperr.FileNotFound, "dump-ast", err)
	}
	form, ok := reader.ReadString(string(b))
	if !ok {
		return fmt.Errorf("%s: no form to dump", loadPaths[0])
	}
	switch format {
	case "sexpr":
		fmt.Fprintln(out, printer.Print(form, true))
	case "cbor":
		data, err := printer.DumpCBOR(form)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		return fmt.Errorf("unknown --dump-ast format %q (want sexpr or cbor)", format)
	}
	return nil
}

func resolvePlugin(name string) (plugin.Plugin, error) {
	switch name {
	case "history":
		return history.New(), nil
	case "hash":
		return hash.New(), nil
	case "print":
		return print.New(), nil
	default:
		return nil, fmt.Errorf("unknown plugin %q", name)
	}
}

func loadFile(root *env.Env, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return lisperr.Wrap(lisperr.FileNotFound, "load", err)
	}
	evalMu.Lock()
	defer evalMu.Unlock()
	r := reader.New(tokenizeSource(string(b)))
	for {
		form, ok := r.Next()
		if !ok {
			return nil
		}
		if form.Kind() == value.KindIncomplete {
			return lisperr.New(lisperr.IllegalType, "load:"+path)
		}
		if _, err := eval.Apply(form, root); err != nil {
			return err
		}
	}
}

func watchFiles(root *env.Env, paths []string) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return
	}
	defer w.Close()
	for _, p := range paths {
		_ = w.Add(p)
	}
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				_ = loadFile(root, ev.Name)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

// repl reads one input line, parses, evaluates, prints, and emits,
// exiting on end-of-input. A form split across
// multiple lines (an open paren with no closer yet) keeps reading more
// lines until the reader stops returning Incomplete.
func repl(in io.Reader, out io.Writer, root *env.Env, hist *history.Plugin) {
	scanner := bufio.NewScanner(in)
	prompt := func() { fmt.Fprint(out, "lisp> ") }

	prompt()
	var pending string
	for scanner.Scan() {
		pending += scanner.Text() + "\n"
		form, ok := reader.ReadString(pending)
		if !ok {
			// blank/whitespace-only input so far; keep reading
			prompt()
			continue
		}
		if form.Kind() == value.KindIncomplete {
			// Still missing a closing delimiter; accumulate more lines
			// without printing a fresh prompt line, matching a
			// continuation-style REPL.
			continue
		}
		pending = ""
		evalMu.Lock()
		result, err := eval.Apply(form, root)
		evalMu.Unlock()
		if err != nil {
			printErr(out, err)
		} else {
			if hist != nil {
				hist.Record(form)
			}
			fmt.Fprintln(out, printer.Print(result, true))
		}
		prompt()
	}
}

func printErr(out io.Writer, err error) {
	if le, ok := err.(*lisperr.Error); ok {
		fmt.Fprintf(out, "error: %s\n", le.Kind)
		return
	}
	fmt.Fprintf(out, "error: %v\n", err)
}

func tokenizeSource(src string) []token.Token {
	return token.Tokenize(src)
}
