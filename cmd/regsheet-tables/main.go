// regsheet-tables flattens register workbooks into relational tables
// (components, blocks, registers, fields) and diffs them against a previous
// snapshot.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robert-at-pretension-io/regsheet/internal/config"
	"github.com/robert-at-pretension-io/regsheet/internal/runner"
	"github.com/robert-at-pretension-io/regsheet/internal/tables"
	"github.com/robert-at-pretension-io/regsheet/internal/validator"
)

const usage = "Usage: regsheet-tables [--output file] [--blocks A,B] [--delta-from prev.json --delta-out delta.json] <file|dir>"

var errUsage = errors.New(usage)

type options struct {
	output    string
	blocks    string
	deltaFrom string
	deltaOut  string
	path      string
}

func main() {
	var opts options
	flag.StringVar(&opts.output, "output", "", "write tables JSON to file (default: stdout)")
	flag.StringVar(&opts.output, "o", "", "write tables JSON to file (shorthand)")
	flag.StringVar(&opts.blocks, "blocks", "", "comma-separated address blocks to keep")
	flag.StringVar(&opts.deltaFrom, "delta-from", "", "previous tables JSON to compute delta from")
	flag.StringVar(&opts.deltaOut, "delta-out", "", "write delta JSON to file (requires --delta-from)")
	flag.Parse()
	opts.path = flag.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	if opts.path == "" {
		return errUsage
	}
	if (opts.deltaFrom == "") != (opts.deltaOut == "") {
		return errors.New("--delta-from and --delta-out must be used together")
	}

	root, files, err := splitPath(opts.path)
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	r := runner.New(cfg, log)
	r.Lint = false
	var res *runner.Result
	if files != nil {
		res, err = r.RunFiles(ctx, root, files)
	} else {
		res, err = r.Run(ctx, root)
	}
	if err != nil {
		return err
	}

	tbl := res.Tables()
	if keep := blockSet(opts.blocks); keep != nil {
		tbl = tables.FilterTablesByBlocks(tbl, keep)
	}

	if cfg.ValidateEnabled() {
		v, err := validator.NewTablesValidator()
		if err != nil {
			return err
		}
		if err := v.Validate(tbl); err != nil {
			return err
		}
	}

	if opts.output != "" {
		if err := writeJSONFile(opts.output, tbl); err != nil {
			return fmt.Errorf("write tables: %w", err)
		}
	} else if err := writeJSON(os.Stdout, tbl); err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}

	if opts.deltaFrom == "" {
		return nil
	}
	prev, err := readTables(opts.deltaFrom)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.deltaFrom, err)
	}
	if err := writeJSONFile(opts.deltaOut, tables.ComputeDelta(prev, tbl)); err != nil {
		return fmt.Errorf("write delta: %w", err)
	}
	return nil
}

// blockSet parses the --blocks list; nil means keep everything.
func blockSet(list string) map[string]bool {
	var keep map[string]bool
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			if keep == nil {
				keep = make(map[string]bool)
			}
			keep[b] = true
		}
	}
	return keep
}

func splitPath(path string) (string, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return path, nil, nil
	}
	return filepath.Dir(path), []string{path}, nil
}

func readTables(path string) (tables.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tables.Tables{}, err
	}
	var t tables.Tables
	err = json.Unmarshal(data, &t)
	return t, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, v); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
