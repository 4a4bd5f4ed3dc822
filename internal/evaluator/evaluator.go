// Package evaluator decides merge, review or reject for a SARIF log using
// Rego policies.
package evaluator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/chris-regnier/chisel/internal/sarif"
	"github.com/chris-regnier/chisel/internal/store"
)

//go:embed default.rego
var defaultPolicy string

// Query is the Rego rule a policy must define.
const Query = "data.chisel.gate.decision"

var decisions = map[string]bool{"merge": true, "review": true, "reject": true}

type Evaluator struct {
	query   rego.PreparedEvalQuery
	modules []string
}

// NewEvaluator creates an evaluator. If policyDir is empty or holds no .rego
// files, the embedded default policy is used. Otherwise every .rego file in
// the directory is loaded and the default is not.
func NewEvaluator(ctx context.Context, policyDir string) (*Evaluator, error) {
	opts := []func(*rego.Rego){rego.Query(Query)}
	var names []string

	if policyDir != "" {
		entries, err := os.ReadDir(policyDir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading policy dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".rego") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(policyDir, e.Name()))
			if err != nil {
				return nil, err
			}
			opts = append(opts, rego.Module(e.Name(), string(data)))
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		opts = append(opts, rego.Module("default.rego", defaultPolicy))
		names = append(names, "default.rego")
	}
	sort.Strings(names)

	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing rego query: %w", err)
	}
	return &Evaluator{query: query, modules: names}, nil
}

// Modules returns the names of the loaded policy files.
func (e *Evaluator) Modules() []string { return e.modules }

func (e *Evaluator) Evaluate(ctx context.Context, log *sarif.Log) (*store.Verdict, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating rego: %w", err)
	}

	decision := "review"
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		d, ok := results[0].Expressions[0].Value.(string)
		if !ok || !decisions[d] {
			return nil, fmt.Errorf("policy returned invalid decision %v", results[0].Expressions[0].Value)
		}
		decision = d
	}

	levels := map[string]int{}
	var relevant []sarif.Result
	for _, r := range log.Results() {
		levels[r.Level]++
		switch {
		case decision == "reject" && r.Level == "error":
			relevant = append(relevant, r)
		case decision == "review" && (r.Level == "warning" || r.Level == "error"):
			relevant = append(relevant, r)
		}
	}

	return &store.Verdict{
		Decision:         decision,
		Reason:           fmt.Sprintf("Decision: %s based on %d findings", decision, len(log.Results())),
		RelevantFindings: relevant,
		Metadata: map[string]interface{}{
			"levels":   levels,
			"policies": e.modules,
		},
	}, nil
}
