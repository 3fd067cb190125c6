package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/marcelmacasso/ws-scss/pkg/scss/errors"
	"github.com/marcelmacasso/ws-scss/pkg/scss/format"
	"github.com/marcelmacasso/ws-scss/pkg/scss/parser"
	"github.com/marcelmacasso/ws-scss/pkg/scss/repl"
)

// Version is set at compile time via -ldflags
var Version = "0.3.0"

var (
	// Display flags
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	// Parsing flags
	evalFlag     = flag.String("e", "", "Parse a value expression")
	evalLongFlag = flag.String("eval", "", "Parse a value expression")
	selectorFlag = flag.String("selector", "", "Parse a selector list")
	checkFlag    = flag.Bool("check", false, "Check syntax without dumping the tree")
	formatFlag   = flag.String("format", "text", "Dump format: text, json, or yaml")
	watchFlag    = flag.Bool("watch", false, "Watch the files and re-check on change")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag || *versionLongFlag {
		fmt.Printf("scssp version %s\n", Version)
		os.Exit(0)
	}

	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case evalCode != "":
		parseInlineValue(evalCode)
	case *selectorFlag != "":
		parseInlineSelector(*selectorFlag)
	case *checkFlag:
		files := flag.Args()
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --check requires at least one file")
			os.Exit(2)
		}
		code := checkFiles(files)
		if *watchFlag {
			watchFiles(files)
		}
		os.Exit(code)
	case len(flag.Args()) > 0:
		exitCode := 0
		for _, filename := range flag.Args() {
			if err := dumpFile(filename, *formatFlag); err != nil {
				exitCode = 1
			}
		}
		if *watchFlag {
			watchFiles(flag.Args())
		}
		os.Exit(exitCode)
	default:
		repl.Start(os.Stdout, Version)
	}
}

func printHelp() {
	fmt.Printf(`scssp - SCSS parser front end version %s

Usage:
  scssp [options] [file...]
  scssp -e "expr"
  scssp --selector "sel"
  scssp --check <file>...

Display Options:
  -h, --help            Show this help message
  -V, --version         Show version information

Parsing Options:
  -e, --eval <expr>     Parse a value expression and print it back
  --selector <sel>      Parse a selector list and print it back
  --check               Check syntax without dumping the tree
  --format <fmt>        Dump format: text (canonical source), json, yaml
  --watch               After the first pass, watch the files and re-check
                        on every change

Examples:
  scssp                         Start the interactive playground
  scssp style.scss              Parse and print the canonical source
  scssp --format json style.scss   Dump the tree as JSON
  scssp --check style.scss      Syntax-check one or more files
  scssp --check --watch *.scss  Re-check whenever a file changes
  scssp -e '2px * (1 + 3)'      Parse a value expression
  scssp --selector 'a:hover'    Parse a selector
`, Version)
}

// parseInlineValue parses a value expression provided via -e
func parseInlineValue(code string) {
	value, err := parser.New("(eval)", 0).ParseValue(code)
	if err != nil {
		printParseError(code, err)
		os.Exit(1)
	}
	switch *formatFlag {
	case "json", "yaml":
		data, err := encodeDump(format.Dump(value), *formatFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	default:
		fmt.Println(format.Value(value))
	}
}

// parseInlineSelector parses a selector list provided via --selector
func parseInlineSelector(code string) {
	sels, err := parser.New("(eval)", 0).ParseSelectors(code)
	if err != nil {
		printParseError(code, err)
		os.Exit(1)
	}
	switch *formatFlag {
	case "json", "yaml":
		data, err := encodeDump(format.Dump(sels), *formatFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	default:
		fmt.Println(format.Selectors(sels))
	}
}

// checkFiles checks the syntax of one or more files without dumping them
func checkFiles(files []string) int {
	hasErrors := false
	for _, filename := range files {
		if err := checkFile(filename); err != nil {
			if _, ok := err.(*errors.ParseError); !ok {
				fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, err)
				return 2
			}
			hasErrors = true
		}
	}
	if hasErrors {
		return 1
	}
	return 0
}

func checkFile(filename string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	source := string(content)
	if _, err := parser.New(filename, 0).Parse(source); err != nil {
		printParseError(source, err)
		return err
	}
	return nil
}

// dumpFile parses one file and prints its tree in the selected format
func dumpFile(filename, dumpFormat string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
		return err
	}
	source := string(content)

	root, err := parser.New(filename, 0).Parse(source)
	if err != nil {
		printParseError(source, err)
		return err
	}

	switch dumpFormat {
	case "json", "yaml":
		data, err := encodeDump(format.Dump(root), dumpFormat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding %s: %v\n", filename, err)
			return err
		}
		fmt.Println(string(data))
	default:
		fmt.Print(format.Tree(root))
	}
	return nil
}

func encodeDump(dump any, dumpFormat string) ([]byte, error) {
	if dumpFormat == "yaml" {
		return yaml.Marshal(dump)
	}
	return json.MarshalIndent(dump, "", "  ")
}

// watchFiles re-checks files whenever they change, until interrupted
func watchFiles(files []string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
		os.Exit(2)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			continue
		}
		watched[abs] = true
		// watch the directory: editors often replace files on save
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching %s: %v\n", f, err)
		}
	}
	fmt.Fprintf(os.Stderr, "watching %d file(s)\n", len(files))

	// debounce rapid change bursts
	const debounce = 100 * time.Millisecond
	var lastChange time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if time.Since(lastChange) < debounce {
				continue
			}
			lastChange = time.Now()

			if err := checkFile(abs); err == nil {
				fmt.Fprintf(os.Stderr, "%s: ok\n", event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}

// printParseError prints a parse error with source context
func printParseError(source string, err error) {
	perr, ok := err.(*errors.ParseError)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, perr.PrettyString())
	printSourceContext(strings.Split(source, "\n"), perr.Line, perr.Column)
}

// printSourceContext prints the offending source line and a pointer
func printSourceContext(lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}
	sourceLine := lines[lineNum-1]

	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == ' ' {
			trimCount++
		} else if sourceLine[i] == '\t' {
			trimCount += 8
		} else {
			break
		}
	}
	trimmedLine := strings.TrimLeft(sourceLine, " \t")
	fmt.Fprintf(os.Stderr, "    %s\n", trimmedLine)

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		adjustedCol := max(visualCol-trimCount, 0)
		pointer := strings.Repeat(" ", adjustedCol) + "^"
		fmt.Fprintf(os.Stderr, "    %s\n", pointer)
	}
}
