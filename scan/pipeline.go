package scan

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/fatih/semgroup"

	"github.com/semmatch/semmatch"
	"github.com/semmatch/semmatch/logging"
	"github.com/semmatch/semmatch/targets"
	"github.com/semmatch/semmatch/validate"
)

// DefaultConcurrency bounds per-target matching when Concurrency is not set.
const DefaultConcurrency = 8

// Matcher is a matching engine. Match returns the raw findings of every rule
// for one target, in no particular order.
type Matcher interface {
	Match(ctx context.Context, target targets.Target) ([]semmatch.Finding, error)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(ctx context.Context, target targets.Target) ([]semmatch.Finding, error)

func (fn MatcherFunc) Match(ctx context.Context, target targets.Target) ([]semmatch.Finding, error) {
	return fn(ctx, target)
}

type Pipeline struct {
	// target consumer, raw finding producer
	Matcher Matcher

	// ExtendedMatcher runs after Matcher over the same targets. Its findings
	// are attributed to the extended engine.
	ExtendedMatcher Matcher

	// Validator is optional.
	Validator *validate.Validator

	// Ignore and Baseline are optional filters.
	Ignore   *IgnoreSet
	Baseline *Baseline

	Concurrency int

	matched  atomic.Int64
	extended atomic.Int64
}

// Run matches every target and post-processes the merged findings. A target
// that fails does not stop the others: its error is joined into the returned
// error and the findings of the remaining targets are still returned.
func (p *Pipeline) Run(ctx context.Context, ts []targets.Target) ([]semmatch.Finding, error) {
	if p.Matcher == nil {
		return nil, errors.New("pipeline has no matcher")
	}

	findings, errs := p.matchAll(ctx, p.Matcher, ts, false)
	if p.ExtendedMatcher != nil {
		extended, extErrs := p.matchAll(ctx, p.ExtendedMatcher, ts, true)
		findings = append(findings, extended...)
		errs = append(errs, extErrs...)
	}

	logging.Debug().
		Int("targets", len(ts)).
		Int64("matched", p.matched.Load()).
		Int64("extended", p.extended.Load()).
		Int("errors", len(errs)).
		Msg("matching done")

	out, err := p.Postprocess(ctx, findings)
	if err != nil {
		errs = append(errs, err)
	}
	return out, errors.Join(errs...)
}

func (p *Pipeline) matchAll(ctx context.Context, m Matcher, ts []targets.Target, extended bool) ([]semmatch.Finding, []error) {
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var (
		mu       sync.Mutex
		findings []semmatch.Finding
		errs     []error
	)
	sg := semgroup.NewGroup(ctx, int64(concurrency))
	for _, t := range ts {
		t := t
		sg.Go(func() error {
			fs, err := m.Match(ctx, t)
			if err != nil {
				logging.Debug().Err(err).Str("path", t.Origin).Msg("matching failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", t.Origin, err))
				mu.Unlock()
			}
			if extended {
				for i := range fs {
					fs[i] = semmatch.MarkExtended(fs[i])
				}
				p.extended.Add(int64(len(fs)))
			} else {
				p.matched.Add(int64(len(fs)))
			}
			mu.Lock()
			findings = append(findings, fs...)
			mu.Unlock()
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		// only a failed semaphore acquire reaches here
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		errs = append(errs, err)
	}
	return findings, errs
}

// Process releases AST references, then drops duplicates and findings nested
// in a larger finding of the same rule and file. The input is sorted first so
// the result does not depend on the order findings were merged in.
func Process(fs []semmatch.Finding) []semmatch.Finding {
	fs = semmatch.ReleaseAST(fs)
	sortFindings(fs)
	before := len(fs)
	fs = semmatch.NoSubmatches(semmatch.Uniq(fs))
	logging.Debug().
		Int("in", before).
		Int("out", len(fs)).
		Msg("findings deduplicated")
	return fs
}

// Postprocess runs Process and then the ignore filter, validation and the
// baseline filter, in that order.
func (p *Pipeline) Postprocess(ctx context.Context, fs []semmatch.Finding) ([]semmatch.Finding, error) {
	fs = Process(fs)
	fs = p.Ignore.Filter(fs)

	if p.Validator != nil {
		validated, err := p.Validator.ValidateAll(ctx, fs)
		if err != nil {
			return validated, fmt.Errorf("validation: %w", err)
		}
		fs = validated
	}

	return p.Baseline.Filter(fs), nil
}

func sortFindings(fs []semmatch.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if pa, pb := a.Path.Internal, b.Path.Internal; pa != pb {
			return pa < pb
		}
		if a.Range.Start.Offset != b.Range.Start.Offset {
			return a.Range.Start.Offset < b.Range.Start.Offset
		}
		if a.Range.End.Offset != b.Range.End.Offset {
			return a.Range.End.Offset < b.Range.End.Offset
		}
		if a.RuleID() != b.RuleID() {
			return a.RuleID() < b.RuleID()
		}
		return a.Engine < b.Engine
	})
}
