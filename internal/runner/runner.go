package runner

// =============================================================================
// RUNNER: MANY WORKBOOKS, ONE PASS
// =============================================================================
//
// The runner turns a project (a directory plus regsheet.json) into one
// register map per workbook:
//
//	scan      resolve input globs, drop excluded files
//	parse     decode + parse workbooks in parallel (cache by content hash)
//	validate  check every model against the CUE contract
//	lint      run the rego rules, apply configured severities
//
// A workbook that cannot be opened is reported in its WorkbookResult and the
// others still run. A model that fails validation is a parser bug and
// aborts the run.
// =============================================================================

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/robert-at-pretension-io/regsheet/internal/config"
	"github.com/robert-at-pretension-io/regsheet/internal/export"
	"github.com/robert-at-pretension-io/regsheet/internal/parser"
	"github.com/robert-at-pretension-io/regsheet/internal/policy"
	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
	"github.com/robert-at-pretension-io/regsheet/internal/tables"
	"github.com/robert-at-pretension-io/regsheet/internal/validator"
	"github.com/robert-at-pretension-io/regsheet/internal/workbook"
)

// Runner processes every workbook of a project.
type Runner struct {
	// Configuration loaded from regsheet.json
	Config *config.Config

	// Log receives progress and per-sheet diagnostics. Nil discards.
	Log logrus.FieldLogger

	// Lint enables rego rule evaluation
	Lint bool
}

// WorkbookResult is the outcome for a single workbook.
type WorkbookResult struct {
	Path        string              `json:"path"`
	Model       *regmap.Model       `json:"model,omitempty"`
	Diagnostics []parser.Diagnostic `json:"diagnostics,omitempty"`
	Violations  []policy.Violation  `json:"violations,omitempty"`
	CacheHit    bool                `json:"cache_hit,omitempty"`
	Error       string              `json:"error,omitempty"`

	ParseDuration time.Duration `json:"-"`
}

// Result is the structured result of a run.
type Result struct {
	Workbooks []WorkbookResult `json:"workbooks"`
	Summary   Summary          `json:"summary"`
}

// Summary provides aggregate counts.
type Summary struct {
	Workbooks int `json:"workbooks"`
	Failed    int `json:"failed"`
	CacheHits int `json:"cache_hits"`
	Blocks    int `json:"blocks"`
	Registers int `json:"registers"`
	Fields    int `json:"fields"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Info      int `json:"info"`
}

// New creates a runner for cfg. A nil cfg uses config.DefaultConfig.
func New(cfg *config.Config, log logrus.FieldLogger) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Runner{Config: cfg, Log: log, Lint: true}
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return r.Log
}

// Run resolves the configured inputs under rootPath and processes them.
func (r *Runner) Run(ctx context.Context, rootPath string) (*Result, error) {
	start := time.Now()
	tl := r.openTimeline(start)
	defer tl.close()

	files, err := r.Config.ResolveInputs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("resolve inputs: %w", err)
	}
	tl.stage("scan", start, "")
	r.logger().WithField("workbooks", len(files)).Info("found workbooks")

	res, err := r.process(ctx, rootPath, files, tl)
	tl.stage("total", start, statusOf(err))
	return res, err
}

// RunFiles processes explicit workbook paths. Cache paths resolve against
// rootPath.
func (r *Runner) RunFiles(ctx context.Context, rootPath string, files []string) (*Result, error) {
	start := time.Now()
	tl := r.openTimeline(start)
	defer tl.close()

	res, err := r.process(ctx, rootPath, files, tl)
	tl.stage("total", start, statusOf(err))
	return res, err
}

func (r *Runner) openTimeline(start time.Time) *timeline {
	tl, err := openTimeline(start, timelinePath(r.Config.Analysis.Timing))
	if err != nil {
		r.logger().WithError(err).Warn("timing output disabled")
	}
	return tl
}

func (r *Runner) process(ctx context.Context, rootPath string, files []string, tl *timeline) (*Result, error) {
	log := r.logger()

	var cache *modelCache
	if r.Config.CacheEnabled() {
		cache = newModelCache(r.Config.CacheDir(rootPath), modelVersion)
		if err := cache.Load(); err != nil {
			log.WithError(err).Warn("cache disabled")
			cache = nil
		}
	}

	// Parse
	stepStart := time.Now()
	results := make([]WorkbookResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism())
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.parseOne(log, cache, f, tl)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if cache != nil {
		if err := cache.Save(); err != nil {
			log.WithError(err).Warn("cache save failed")
		}
	}
	tl.stage("parse", stepStart, "")

	// Validate
	if r.Config.ValidateEnabled() {
		stepStart = time.Now()
		v, err := validator.New()
		if err != nil {
			return nil, fmt.Errorf("init validator: %w", err)
		}
		for _, wr := range results {
			if wr.Model == nil {
				continue
			}
			if err := v.Validate(wr.Model); err != nil {
				tl.stage("validate", stepStart, "error")
				return nil, fmt.Errorf("%s: %w", wr.Path, err)
			}
		}
		tl.stage("validate", stepStart, "")
	}

	// Lint
	if r.Lint {
		stepStart = time.Now()
		engine, err := policy.New(ctx, r.policyDir(rootPath))
		if err != nil {
			return nil, fmt.Errorf("init policy engine: %w", err)
		}
		for i := range results {
			if results[i].Model == nil {
				continue
			}
			pr, err := engine.Evaluate(ctx, results[i].Model, r.Config)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", results[i].Path, err)
			}
			results[i].Violations = pr.Violations
		}
		tl.stage("lint", stepStart, "")
	}

	res := &Result{Workbooks: results}
	res.Summary = summarize(results)

	if path := r.Config.Analysis.MetricsFile; path != "" {
		m := newMetrics()
		for i := range results {
			m.observe(&results[i])
		}
		if err := m.write(path); err != nil {
			log.WithError(err).Warn("metrics not written")
		}
	}

	return res, nil
}

func (r *Runner) parseOne(log logrus.FieldLogger, cache *modelCache, path string, tl *timeline) WorkbookResult {
	fileStart := time.Now()
	wr := WorkbookResult{Path: path}
	flog := log.WithField("workbook", path)

	data, err := os.ReadFile(path)
	if err != nil {
		wr.Error = err.Error()
		tl.workbook("parse", path, "error", 0, fileStart)
		flog.WithError(err).Error("cannot read workbook")
		return wr
	}

	var contentHash string
	if cache != nil {
		contentHash = hashBytes(data)
		cp, ok, err := cache.Get(contentHash)
		if err != nil {
			flog.WithError(err).Warn("cache read failed")
		} else if ok {
			cache.touch(path, contentHash)
			wr.Model = cp.Model
			wr.Diagnostics = cp.Diagnostics
			wr.CacheHit = true
			tl.workbook("parse", path, "cache_hit", cp.Model.RegisterCount(), fileStart)
			flog.Debug("cache hit")
			return wr
		}
	}

	wb, err := workbook.OpenBytes(data)
	if err != nil {
		openErr := &parser.OpenError{Err: err}
		wr.Error = openErr.Error()
		tl.workbook("parse", path, "error", 0, fileStart)
		flog.WithError(err).Error("cannot open workbook")
		return wr
	}
	defer wb.Close()

	pr := parser.New(flog).Parse(wb)
	wr.Model = pr.Model
	wr.Diagnostics = pr.Diagnostics
	wr.ParseDuration = time.Since(fileStart)

	if cache != nil {
		if err := cache.Put(path, contentHash, cachedParse{Model: pr.Model, Diagnostics: pr.Diagnostics}); err != nil {
			flog.WithError(err).Warn("cache write failed")
		}
	}
	tl.workbook("parse", path, "parsed", pr.Model.RegisterCount(), fileStart)
	flog.WithFields(logrus.Fields{
		"blocks":    len(pr.Model.AddressBlocks),
		"registers": pr.Model.RegisterCount(),
	}).Debug("parsed workbook")
	return wr
}

func (r *Runner) parallelism() int {
	if n := r.Config.Analysis.MaxParallelFiles; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

func (r *Runner) policyDir(rootPath string) string {
	dir := r.Config.Lint.PolicyDir
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(rootPath, dir)
}

func summarize(results []WorkbookResult) Summary {
	s := Summary{Workbooks: len(results)}
	for _, wr := range results {
		if wr.Error != "" {
			s.Failed++
			continue
		}
		if wr.CacheHit {
			s.CacheHits++
		}
		s.Blocks += len(wr.Model.AddressBlocks)
		s.Registers += wr.Model.RegisterCount()
		s.Fields += fieldCount(wr.Model)
		for _, v := range wr.Violations {
			switch v.Severity {
			case policy.SeverityError:
				s.Errors++
			case policy.SeverityWarning:
				s.Warnings++
			default:
				s.Info++
			}
		}
	}
	return s
}

func fieldCount(m *regmap.Model) int {
	n := 0
	for _, b := range m.AddressBlocks {
		for _, r := range b.Registers {
			n += len(r.Fields)
		}
	}
	return n
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return ""
}

// Tables flattens every parsed model into relations keyed by workbook path.
func (res *Result) Tables() tables.Tables {
	sources := make([]tables.Source, 0, len(res.Workbooks))
	for _, wr := range res.Workbooks {
		if wr.Model != nil {
			sources = append(sources, tables.Source{File: wr.Path, Model: wr.Model})
		}
	}
	return tables.BuildTables(sources)
}

// HasErrors reports whether any workbook failed or any error-level
// violation was found.
func (res *Result) HasErrors() bool {
	return res.Summary.Failed > 0 || res.Summary.Errors > 0
}

// OutputPath returns where the document for workbook path is written in dir.
func OutputPath(dir, path, format string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, base+export.Extension(format))
}

// WriteOutputs writes one document per parsed workbook into dir using the
// configured format and indent.
func (r *Runner) WriteOutputs(res *Result, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}
	format := r.Config.Output.Format
	var written []string
	for _, wr := range res.Workbooks {
		if wr.Model == nil {
			continue
		}
		out := OutputPath(dir, wr.Path, format)
		f, err := os.Create(out)
		if err != nil {
			return written, fmt.Errorf("create %s: %w", out, err)
		}
		if err := export.Write(f, wr.Model, format, r.Config.IndentString()); err != nil {
			_ = f.Close()
			return written, fmt.Errorf("write %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return written, fmt.Errorf("close %s: %w", out, err)
		}
		written = append(written, out)
	}
	return written, nil
}
