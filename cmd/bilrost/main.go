// Command bilrost is the schema compiler for the Bilrost wire format: it
// validates, formats, and generates Go code from .bilrost schema files.
//
// Usage:
//
//	bilrost generate [options] <schema-file>...
//	bilrost validate <schema-file>...
//	bilrost format [options] <schema-file>...
//	bilrost version
//
// Generate Command:
//
//	Generate Go code from schema files.
//
//	Options:
//	  -out string       Output directory (default ".")
//	  -package string   Override package name
//	  -comments         Include schema doc comments in generated code (default true)
//
// Validate Command:
//
//	Validate schema files without generating code.
//
// Format Command:
//
//	Format schema files, printing the result to stdout, or rewriting each
//	file in place with -w.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bilrost-rs/bilrost-go/pkg/codegen"
	"github.com/bilrost-rs/bilrost-go/pkg/schema"
)

// version is the schema compiler's own version.
const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate", "gen", "g":
		cmdGenerate(os.Args[2:])
	case "validate", "val", "v":
		cmdValidate(os.Args[2:])
	case "format", "fmt", "f":
		cmdFormat(os.Args[2:])
	case "version":
		fmt.Printf("bilrost version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Bilrost Schema Compiler

Usage:
  bilrost <command> [options] <files>...

Commands:
  generate    Generate Go code from schema files
  validate    Validate schema files
  format      Format schema files
  version     Print version information
  help        Print this help message

Run 'bilrost <command> -h' for command-specific help.`)
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)

	outDir := fs.String("out", ".", "Output directory")
	pkg := fs.String("package", "", "Override package name")
	comments := fs.Bool("comments", true, "Include schema doc comments in generated code")

	fs.Usage = func() {
		fmt.Println(`Usage: bilrost generate [options] <schema-file>...

Generate Go code from Bilrost schema files.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files")
		fs.Usage()
		os.Exit(1)
	}

	gen, ok := codegen.Get(codegen.LanguageGo)
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: no Go code generator registered")
		os.Exit(1)
	}

	opts := codegen.DefaultOptions()
	opts.Package = *pkg
	opts.GenerateComments = *comments

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	loader := schema.NewLoader()
	hasErrors := false

	for _, inputFile := range fs.Args() {
		s, errs := loader.LoadFile(inputFile)
		if len(errs) > 0 {
			hasErrors = true
			for _, err := range errs {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}

		baseName := filepath.Base(inputFile)
		baseName = strings.TrimSuffix(baseName, filepath.Ext(baseName))
		outputFile := filepath.Join(*outDir, baseName+gen.FileExtension())

		f, err := os.Create(outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
			hasErrors = true
			continue
		}

		if err := gen.Generate(f, s, opts); err != nil {
			f.Close()
			os.Remove(outputFile)
			fmt.Fprintf(os.Stderr, "Error generating code: %v\n", err)
			hasErrors = true
			continue
		}

		f.Close()
		fmt.Printf("Generated: %s\n", outputFile)
	}

	if hasErrors {
		os.Exit(1)
	}
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Println(`Usage: bilrost validate [options] <schema-file>...

Validate Bilrost schema files without generating code.`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files")
		fs.Usage()
		os.Exit(1)
	}

	hasErrors := false
	hasWarnings := false

	for _, inputFile := range fs.Args() {
		content, err := os.ReadFile(inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inputFile, err)
			hasErrors = true
			continue
		}

		s, parseErrors := schema.ParseFile(inputFile, string(content))
		if len(parseErrors) > 0 {
			for _, e := range parseErrors {
				fmt.Fprintln(os.Stderr, e)
			}
			hasErrors = true
			continue
		}

		valid := true
		for _, e := range schema.Validate(s) {
			fmt.Fprintln(os.Stderr, e)
			if e.Severity == schema.SeverityError {
				hasErrors = true
				valid = false
			} else {
				hasWarnings = true
			}
		}
		if valid {
			fmt.Printf("Valid: %s\n", inputFile)
		}
	}

	if hasErrors {
		os.Exit(1)
	}
	if hasWarnings {
		os.Exit(2)
	}
}

func cmdFormat(args []string) {
	fs := flag.NewFlagSet("format", flag.ExitOnError)
	write := fs.Bool("w", false, "Write result to (source) file instead of stdout")

	fs.Usage = func() {
		fmt.Println(`Usage: bilrost format [options] <schema-file>...

Format Bilrost schema files.

Options:`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no input files")
		fs.Usage()
		os.Exit(1)
	}

	hasErrors := false
	for _, inputFile := range fs.Args() {
		content, err := os.ReadFile(inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", inputFile, err)
			hasErrors = true
			continue
		}

		s, parseErrors := schema.ParseFile(inputFile, string(content))
		if len(parseErrors) > 0 {
			for _, e := range parseErrors {
				fmt.Fprintln(os.Stderr, e)
			}
			hasErrors = true
			continue
		}

		formatted := schema.FormatSchema(s)

		if *write {
			if err := os.WriteFile(inputFile, []byte(formatted), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", inputFile, err)
				hasErrors = true
				continue
			}
			fmt.Printf("Formatted: %s\n", inputFile)
		} else {
			fmt.Print(formatted)
		}
	}

	if hasErrors {
		os.Exit(1)
	}
}
