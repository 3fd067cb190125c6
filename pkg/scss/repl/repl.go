// Package repl provides an interactive loop for exploring the SCSS parser:
// lines are parsed and the resulting tree is printed back.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/marcelmacasso/ws-scss/pkg/scss/errors"
	"github.com/marcelmacasso/ws-scss/pkg/scss/format"
	"github.com/marcelmacasso/ws-scss/pkg/scss/parser"
)

const PROMPT = ">> "

// directive and command words for tab completion
var completionWords = []string{
	"@at-root", "@media", "@mixin", "@include", "@import", "@extend",
	"@function", "@break", "@continue", "@return", "@each", "@while",
	"@for", "@if", "@else", "@debug", "@warn", "@error", "@content",
	"@charset",
	":value", ":selector", ":quit", ":help",
}

// Start starts the REPL with line editing, history, and tab completion.
func Start(out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(line string) []string {
		var matches []string
		words := strings.Fields(line)
		if len(words) == 0 {
			return matches
		}
		last := words[len(words)-1]
		prefix := line[:len(line)-len(last)]
		for _, word := range completionWords {
			if strings.HasPrefix(word, last) {
				matches = append(matches, prefix+word)
			}
		}
		return matches
	})

	historyFile := historyPath()
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	fmt.Fprintf(out, "scssp %s - SCSS parser playground\n", version)
	fmt.Fprintln(out, "Type a stylesheet chunk, :value <expr>, :selector <sel>, or :quit")

	for {
		input, err := line.Prompt(PROMPT)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			fmt.Fprintf(out, "error reading input: %v\n", err)
			break
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(input)

		if trimmed == ":quit" || trimmed == ":q" {
			break
		}
		if trimmed == ":help" {
			fmt.Fprintln(out, "  <chunk>           parse a stylesheet chunk and print the tree")
			fmt.Fprintln(out, "  :value <expr>     parse a value expression")
			fmt.Fprintln(out, "  :selector <sel>   parse a selector list")
			fmt.Fprintln(out, "  :quit             exit")
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, ":value "), strings.HasPrefix(trimmed, ":v "):
			evalValue(out, strings.SplitN(trimmed, " ", 2)[1])
		case strings.HasPrefix(trimmed, ":selector "), strings.HasPrefix(trimmed, ":s "):
			evalSelector(out, strings.SplitN(trimmed, " ", 2)[1])
		default:
			evalChunk(out, input)
		}
	}

	if historyFile != "" {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}
}

func evalChunk(out io.Writer, input string) {
	root, err := parser.New("(repl)", 0).Parse(input)
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprint(out, format.Tree(root))
}

func evalValue(out io.Writer, input string) {
	value, err := parser.New("(repl)", 0).ParseValue(input)
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprintf(out, "%s\n", format.Value(value))
}

func evalSelector(out io.Writer, input string) {
	sels, err := parser.New("(repl)", 0).ParseSelectors(input)
	if err != nil {
		printError(out, err)
		return
	}
	fmt.Fprintf(out, "%s\n", format.Selectors(sels))
}

func printError(out io.Writer, err error) {
	if perr, ok := err.(*errors.ParseError); ok {
		fmt.Fprintln(out, perr.PrettyString())
		return
	}
	fmt.Fprintf(out, "error: %v\n", err)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".scssp_history")
}
