package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

//go:embed lint.rego
var builtinPolicy string

const violationsQuery = "data.regsheet.lint.violations"

// Severities, from least to most severe.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Engine evaluates rego lint rules against register maps
type Engine struct {
	query rego.PreparedEvalQuery
}

// Violation represents a policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Block    string `json:"block,omitempty"`
	Register string `json:"register,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// Severities resolves the configured severity of a rule. Returning "off"
// drops the violation.
type Severities interface {
	GetRuleSeverity(rule string, defaultSeverity string) string
}

// New creates a policy engine from the built-in rules plus every .rego file
// in extraDir. extraDir may be empty. Extra modules add rules by defining
// more "violations contains v if" bodies in package regsheet.lint.
func New(ctx context.Context, extraDir string) (*Engine, error) {
	modules := []func(*rego.Rego){rego.Module("lint.rego", builtinPolicy)}

	if extraDir != "" {
		files, err := filepath.Glob(filepath.Join(extraDir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no policy files found in %s", extraDir)
		}
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
		}
	}

	opts := append(modules, rego.Query(violationsQuery))
	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing violations query: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate runs the rules against model. sev may be nil.
func (e *Engine) Evaluate(ctx context.Context, model *regmap.Model, sev Severities) (*Result, error) {
	inputMap, err := structToMap(model)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	result := &Result{Violations: []Violation{}}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		violations, _ := rs[0].Expressions[0].Value.([]interface{})
		for _, v := range violations {
			vmap, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			violation := Violation{
				Rule:     getString(vmap, "rule"),
				Severity: getString(vmap, "severity"),
				Block:    getString(vmap, "block"),
				Register: getString(vmap, "register"),
				Field:    getString(vmap, "field"),
				Message:  getString(vmap, "message"),
			}
			if sev != nil {
				violation.Severity = sev.GetRuleSeverity(violation.Rule, violation.Severity)
			}
			if violation.Severity == "off" {
				continue
			}
			result.Violations = append(result.Violations, violation)
		}
	}

	sortViolations(result.Violations)
	result.Summary = summarize(result.Violations)
	return result, nil
}

func summarize(violations []Violation) Summary {
	s := Summary{TotalViolations: len(violations)}
	for _, v := range violations {
		switch v.Severity {
		case SeverityError:
			s.Errors++
		case SeverityWarning:
			s.Warnings++
		default:
			s.Info++
		}
	}
	return s
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Block != b.Block {
			return a.Block < b.Block
		}
		if a.Register != b.Register {
			return a.Register < b.Register
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Field < b.Field
	})
}

// Helper functions
func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
