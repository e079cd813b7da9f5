// =============================================================================
// regsheet - Main Entry Point
// =============================================================================
//
// Converts register workbooks (Version / Address Map / one sheet per block)
// into register map documents.
//
// THE PIPELINE:
//   1. excelize decodes the workbook into raw cell grids
//   2. Sheets are normalized (forward fill of address and register name)
//   3. Rows are grouped per register and "{n}, n=range(...)" groups expanded
//   4. Registers are folded into the model, first row wins the address
//   5. CUE validates the model against the output contract
//   6. rego rules report suspicious registers
//   7. The model is written as JSON, YAML or IP-XACT XML
//
// A sheet that is missing or unreadable never stops the run; look at the
// logged diagnostics (-v) when a block comes out empty.
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/robert-at-pretension-io/regsheet/internal/config"
	"github.com/robert-at-pretension-io/regsheet/internal/export"
	"github.com/robert-at-pretension-io/regsheet/internal/runner"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit()
	case "-h", "--help", "help":
		printUsage()
	default:
		os.Exit(runConvert(os.Args[1:]))
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: regsheet [command] [options] <path>

Commands:
  init              Create a regsheet.json configuration file
  <path>            Convert a workbook, or every workbook under a directory

Options:
  -v, --verbose     Enable verbose output
  -c, --config      Specify config file: regsheet -c regsheet.json <path>
  -f, --format      Output format: json, yaml, ipxact (overrides config)
  -o, --out         Write one document per workbook into this directory
  -s, --summary     Print a human-readable listing instead of a document
  --no-lint         Skip rego rule evaluation
  -h, --help        Show this help message

Configuration:
  regsheet looks for configuration in:
    1. ./regsheet.json
    2. ./.regsheet.json
    3. <path>/regsheet.json
    4. ~/.config/regsheet/config.json

  Run 'regsheet init' to create a default configuration file.`)
}

func runInit() {
	configPath := config.FileName

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Workbook input patterns")
	fmt.Println("  - Output format")
	fmt.Println("  - Lint rule severities")
}

func runConvert(args []string) int {
	fs := flag.NewFlagSet("regsheet", flag.ContinueOnError)
	fs.Usage = printUsage
	var verbose, summary, noLint bool
	var configPath, format, outDir string
	fs.BoolVar(&verbose, "v", false, "")
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.StringVar(&configPath, "c", "", "")
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&format, "f", "", "")
	fs.StringVar(&format, "format", "", "")
	fs.StringVar(&outDir, "o", "", "")
	fs.StringVar(&outDir, "out", "", "")
	fs.BoolVar(&summary, "s", false, "")
	fs.BoolVar(&summary, "summary", false, "")
	fs.BoolVar(&noLint, "no-lint", false, "")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		printUsage()
		return 1
	}
	path := fs.Arg(0)

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	root, files, err := splitPath(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(configPath, root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}
	if format != "" {
		cfg.Output.Format = format
		if err := cfg.Check(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if outDir == "" {
		outDir = cfg.Output.Dir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := runner.New(cfg, log)
	r.Lint = !noLint

	var res *runner.Result
	if files != nil {
		res, err = r.RunFiles(ctx, root, files)
	} else {
		res, err = r.Run(ctx, root)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := report(r, res, outDir, summary); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if res.HasErrors() {
		return 1
	}
	return 0
}

// splitPath returns the project root for path and, when path is a single
// workbook, that file.
func splitPath(path string) (string, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return path, nil, nil
	}
	if !config.IsWorkbook(path) {
		return "", nil, fmt.Errorf("%s is not an .xlsx or .xlsm workbook", path)
	}
	return filepath.Dir(path), []string{path}, nil
}

func loadConfig(configPath, root string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load(root)
}

func report(r *runner.Runner, res *runner.Result, outDir string, summary bool) error {
	for _, wr := range res.Workbooks {
		if wr.Error != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", wr.Path, wr.Error)
			continue
		}
		for _, v := range wr.Violations {
			loc := v.Block
			if v.Register != "" {
				loc += "/" + v.Register
			}
			if v.Field != "" {
				loc += "." + v.Field
			}
			fmt.Fprintf(os.Stderr, "%s: [%s] %s %s: %s\n", wr.Path, v.Severity, v.Rule, loc, v.Message)
		}
	}

	switch {
	case outDir != "":
		written, err := r.WriteOutputs(res, outDir)
		if err != nil {
			return err
		}
		for _, p := range written {
			fmt.Println(p)
		}
	case summary:
		for _, wr := range res.Workbooks {
			if wr.Model == nil {
				continue
			}
			fmt.Printf("== %s\n", wr.Path)
			if err := export.WriteSummary(os.Stdout, wr.Model); err != nil {
				return err
			}
			fmt.Println()
		}
	case len(res.Workbooks) == 1 && res.Workbooks[0].Model != nil:
		return export.Write(os.Stdout, res.Workbooks[0].Model, r.Config.Output.Format, r.Config.IndentString())
	default:
		s := res.Summary
		fmt.Printf("%d workbooks (%d failed, %d cached): %d blocks, %d registers, %d fields\n",
			s.Workbooks, s.Failed, s.CacheHits, s.Blocks, s.Registers, s.Fields)
		fmt.Printf("lint: %d errors, %d warnings, %d info\n", s.Errors, s.Warnings, s.Info)
		fmt.Println("Use -o <dir> to write the documents.")
	}
	return nil
}
