package validate

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/fatih/semgroup"
	"github.com/google/cel-go/cel"
	"golang.org/x/sync/singleflight"

	"github.com/semmatch/semmatch"
	"github.com/semmatch/semmatch/config"
	"github.com/semmatch/semmatch/logging"
)

// DefaultConcurrency bounds ValidateAll when Concurrency is not set.
const DefaultConcurrency = 16

// check is one compiled validator.
type check struct {
	expr     string
	program  cel.Program
	severity *semmatch.Severity
	metadata map[string]any
}

// Validator runs the CEL checks configured in [[validators]] blocks and
// annotates findings with a ValidationState.
type Validator struct {
	Cache       *ResultCache
	Concurrency int

	checks map[string][]check

	// inflight deduplicates concurrent validations of the same finding.
	inflight singleflight.Group

	// Attempted counts the findings whose rule has at least one validator.
	Attempted atomic.Int64

	// CacheHits counts how many validation lookups were served from cache.
	CacheHits atomic.Int64

	// Evaluations counts CEL program evaluations (cache misses after singleflight).
	Evaluations atomic.Int64
}

// New compiles the validator expressions. Every expression sees the
// variables rule_id, path, severity and metavars (metavariable name to bound
// content) and must evaluate to a bool.
func New(cfgs []config.ValidatorConfig) (*Validator, error) {
	env, err := cel.NewEnv(
		cel.Variable("rule_id", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("severity", cel.StringType),
		cel.Variable("metavars", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, err
	}

	v := &Validator{
		Cache:  NewResultCache(),
		checks: make(map[string][]check),
	}
	for i, c := range cfgs {
		if err := c.Check(); err != nil {
			return nil, fmt.Errorf("validator %d: %w", i, err)
		}
		ast, issues := env.Compile(c.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("validator %d for rule %s: %w", i, c.Rule, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("validator %d for rule %s: %w", i, c.Rule, err)
		}
		v.checks[c.Rule] = append(v.checks[c.Rule], check{
			expr:     c.Expr,
			program:  prg,
			severity: c.SeverityOverride(),
			metadata: c.Metadata,
		})
	}
	return v, nil
}

// Rules returns the number of rules with at least one validator.
func (v *Validator) Rules() int {
	return len(v.checks)
}

// ValidateFinding returns f annotated with the outcome of its rule's
// validators. The first validator that holds confirms the finding and
// applies its overrides; when none holds the finding is invalid. The second
// result is false when the rule has no validator, in which case f is
// returned unchanged.
// Safe for concurrent use; singleflight coalesces identical in-flight
// validations and the result cache deduplicates across calls.
func (v *Validator) ValidateFinding(ctx context.Context, f semmatch.Finding) (semmatch.Finding, bool) {
	checks, ok := v.checks[f.RuleID()]
	if !ok {
		return f, false
	}

	v.Attempted.Add(1)

	cacheKey := v.Cache.Key(f.RuleID(), f.Fingerprint())

	if cached, ok := v.Cache.Get(cacheKey); ok {
		v.CacheHits.Add(1)
		logging.Trace().
			Str("rule", f.RuleID()).
			Str("path", f.Path.Display()).
			Msg("validation cache hit")
		return apply(f, cached), true
	}

	val, _, _ := v.inflight.Do(cacheKey, func() (any, error) {
		result := v.run(ctx, checks, f)
		if result.Err == nil {
			v.Cache.Set(cacheKey, result)
		}
		return result, nil
	})

	return apply(f, val.(*CachedResult)), true
}

func (v *Validator) run(ctx context.Context, checks []check, f semmatch.Finding) *CachedResult {
	if err := ctx.Err(); err != nil {
		return &CachedResult{State: semmatch.ValidationError, Note: err.Error(), Err: err}
	}

	vars := map[string]any{
		"rule_id":  f.RuleID(),
		"path":     f.Path.Display(),
		"severity": string(ruleSeverity(f)),
		"metavars": f.Bindings.Contents(),
	}

	for i, c := range checks {
		v.Evaluations.Add(1)
		out, _, err := c.program.Eval(vars)
		if err != nil {
			logging.Debug().Err(err).
				Str("rule", f.RuleID()).
				Str("expr", c.expr).
				Msg("validator evaluation failed")
			return &CachedResult{
				State: semmatch.ValidationError,
				Note:  fmt.Sprintf("validator %d: %s", i, err),
				Err:   err,
			}
		}
		holds, ok := out.Value().(bool)
		if !ok {
			err := fmt.Errorf("validator %d: expression returned %s, want bool", i, out.Type().TypeName())
			return &CachedResult{State: semmatch.ValidationError, Note: err.Error(), Err: err}
		}
		if holds {
			return &CachedResult{
				State:    semmatch.Confirmed,
				Severity: c.severity,
				Metadata: c.metadata,
				Note:     fmt.Sprintf("validator %d holds", i),
			}
		}
	}
	return &CachedResult{State: semmatch.Invalid, Note: "no validator holds"}
}

// apply returns a copy of f carrying r. Metadata overrides are merged into a
// fresh map so findings never share one.
func apply(f semmatch.Finding, r *CachedResult) semmatch.Finding {
	f.ValidationState = r.State
	if r.Severity != nil {
		s := *r.Severity
		f.SeverityOverride = &s
	}
	if len(r.Metadata) > 0 {
		m := make(map[string]any, len(f.MetadataOverride)+len(r.Metadata))
		for k, val := range f.MetadataOverride {
			m[k] = val
		}
		for k, val := range r.Metadata {
			m[k] = val
		}
		f.MetadataOverride = m
	}
	if r.State == semmatch.Confirmed {
		logging.Debug().
			Str("rule", f.RuleID()).
			Str("path", f.Path.Display()).
			Msg("finding confirmed")
	}
	return f
}

func ruleSeverity(f semmatch.Finding) semmatch.Severity {
	if f.Rule == nil {
		return ""
	}
	return f.Rule.Severity
}

// ValidateAll validates findings with bounded concurrency and returns them
// in their original order. The input slice is not modified.
func (v *Validator) ValidateAll(ctx context.Context, findings []semmatch.Finding) ([]semmatch.Finding, error) {
	out := make([]semmatch.Finding, len(findings))
	copy(out, findings)
	if len(v.checks) == 0 {
		return out, nil
	}

	concurrency := v.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	sg := semgroup.NewGroup(ctx, int64(concurrency))
	for i := range findings {
		i := i
		sg.Go(func() error {
			out[i], _ = v.ValidateFinding(ctx, findings[i])
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		return out, err
	}

	logging.Debug().
		Int64("attempted", v.Attempted.Load()).
		Int64("cache_hits", v.CacheHits.Load()).
		Int64("evaluations", v.Evaluations.Load()).
		Msg("validation done")
	return out, nil
}
