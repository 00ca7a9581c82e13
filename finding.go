package semmatch

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// ValidationState is the outcome of the optional validation pass.
type ValidationState string

const (
	NotValidated    ValidationState = ""
	Confirmed       ValidationState = "confirmed"
	Invalid         ValidationState = "invalid"
	ValidationError ValidationState = "error"
)

// SourcePath identifies the file a finding refers to. Internal is the
// content path the engine read; Origin is the path the user asked for, which
// differs from Internal when the target was reached through a symlink. Only
// Internal takes part in identity.
type SourcePath struct {
	Internal string
	Origin   string
}

// Display returns the path shown to users.
func (p SourcePath) Display() string {
	if p.Origin != "" {
		return p.Origin
	}
	return p.Internal
}

// DependencyMatch describes the dependency a supply-chain finding was
// reported for.
type DependencyMatch struct {
	Package      string `json:"package"`
	Version      string `json:"version"`
	Ecosystem    string `json:"ecosystem"`
	Lockfile     string `json:"lockfile,omitempty"`
	Line         int    `json:"line,omitempty"`
	Transitivity string `json:"transitivity,omitempty"`
	Reachable    bool   `json:"reachable"`
}

// Fact is a derived fact attached to the matched AST node.
type Fact struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// NodeRef points at a node in an AST arena owned by the parser. The zero
// value means no node. A NodeRef does not keep the arena alive; callers must
// clear it with ReleaseAST once metavariable embedding has run.
type NodeRef struct {
	idx uint32
}

// NewNodeRef returns a reference to the node at index idx of the arena.
func NewNodeRef(idx int) NodeRef {
	return NodeRef{idx: uint32(idx) + 1}
}

// Index returns the arena index, or false if the reference is empty.
func (n NodeRef) Index() (int, bool) {
	if n.idx == 0 {
		return 0, false
	}
	return int(n.idx - 1), true
}

// Finding is one reported match of a rule at a location. Findings are
// values: operations that change a finding return a modified copy.
type Finding struct {
	Rule   *RuleRef
	Engine EngineKind
	Path   SourcePath
	Range  Range

	// ASTNode is only meaningful while metavariable embedding runs.
	ASTNode NodeRef

	// Tokens is the full token span of the match, computed on demand for
	// output. Nil when the engine did not provide a way to compute it.
	Tokens *Lazy[[]Token]

	Bindings Bindings

	// Taint is set for taint findings only.
	Taint *Lazy[*TaintTrace]

	ValidationState  ValidationState
	SeverityOverride *Severity
	// MetadataOverride is a sparse patch laid over Rule.Metadata.
	MetadataOverride map[string]any

	Dependency *DependencyMatch
	// FixText is the autofix derived from the matching formula, before any
	// interpolation.
	FixText *string
	Facts   []Fact
}

// RuleID returns the identifier of the rule that produced f.
func (f Finding) RuleID() string {
	if f.Rule == nil {
		return ""
	}
	return f.Rule.ID
}

// Severity returns the severity after validation overrides.
func (f Finding) Severity() Severity {
	if f.SeverityOverride != nil {
		return *f.SeverityOverride
	}
	if f.Rule == nil {
		return ""
	}
	return f.Rule.Severity
}

// Metadata returns the rule metadata with MetadataOverride laid over it. The
// rule's own map is never modified.
func (f Finding) Metadata() map[string]any {
	var base map[string]any
	if f.Rule != nil {
		base = f.Rule.Metadata
	}
	if len(f.MetadataOverride) == 0 {
		return base
	}
	m := make(map[string]any, len(base)+len(f.MetadataOverride))
	for k, v := range base {
		m[k] = v
	}
	for k, v := range f.MetadataOverride {
		m[k] = v
	}
	return m
}

// Message returns the rule message with metavariables replaced by the
// content they captured.
func (f Finding) Message() string {
	if f.Rule == nil {
		return ""
	}
	if f.Rule.Rendered {
		return f.Rule.Message
	}
	return Interpolate(f.Rule.Message, f.Bindings)
}

// TaintTrace forces and returns the taint trace, nil if there is none.
func (f Finding) TaintTrace() *TaintTrace {
	if f.Taint == nil {
		return nil
	}
	return f.Taint.Force()
}

// Lines returns the matched source text, computing the tokens if needed.
func (f Finding) Lines() string {
	if f.Tokens == nil {
		return ""
	}
	toks := f.Tokens.Force()
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Content)
	}
	return b.String()
}

// ReleaseAST returns a copy of f without its AST node reference.
func (f Finding) ReleaseAST() Finding {
	f.ASTNode = NodeRef{}
	return f
}

// ReleaseAST clears the AST node reference of every finding in fs.
func ReleaseAST(fs []Finding) []Finding {
	out := make([]Finding, len(fs))
	for i, f := range fs {
		out[i] = f.ReleaseAST()
	}
	return out
}

// Interpolate replaces metavariable names in s with their bound content in a
// single pass, so substituted content is never rewritten. Longer names are
// tried first so "$XY" is not clobbered by "$X".
func Interpolate(s string, b Bindings) string {
	if len(b) == 0 || !strings.Contains(s, "$") {
		return s
	}
	names := b.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, name, b[name].Content)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// findingJSON is the report shape of a Finding.
type findingJSON struct {
	CheckID string    `json:"check_id"`
	Path    string    `json:"path"`
	Start   Position  `json:"start"`
	End     Position  `json:"end"`
	Extra   extraJSON `json:"extra"`
}

type extraJSON struct {
	Message         string                 `json:"message"`
	Metadata        map[string]any         `json:"metadata"`
	Metavars        map[string]metavarJSON `json:"metavars"`
	Severity        Severity               `json:"severity"`
	EngineKind      EngineKind             `json:"engine_kind"`
	Fingerprint     string                 `json:"fingerprint,omitempty"`
	Lines           string                 `json:"lines,omitempty"`
	Fix             *string                `json:"fix,omitempty"`
	FixRegex        *FixRegexp             `json:"fix_regex,omitempty"`
	ValidationState ValidationState        `json:"validation_state,omitempty"`
	SCAInfo         *DependencyMatch       `json:"sca_info,omitempty"`
	DataflowTrace   *dataflowJSON          `json:"dataflow_trace,omitempty"`
	Facts           []Fact                 `json:"facts,omitempty"`
	Languages       []string               `json:"languages,omitempty"`
}

type metavarJSON struct {
	Start           Position `json:"start"`
	End             Position `json:"end"`
	AbstractContent string   `json:"abstract_content"`
	PropagatedValue *string  `json:"propagated_value,omitempty"`
}

type callTraceJSON struct {
	Content      string         `json:"content"`
	Start        Position       `json:"start"`
	End          Position       `json:"end"`
	Intermediate []Token        `json:"intermediate_vars,omitempty"`
	Next         *callTraceJSON `json:"call_trace,omitempty"`
}

type dataflowJSON struct {
	TaintSource      callTraceJSON `json:"taint_source"`
	IntermediateVars []Token       `json:"intermediate_vars,omitempty"`
	TaintSink        callTraceJSON `json:"taint_sink"`
}

func toCallTraceJSON(c *CallTrace) *callTraceJSON {
	if c == nil {
		return nil
	}
	return &callTraceJSON{
		Content:      c.Content,
		Start:        c.Range.Start,
		End:          c.Range.End,
		Intermediate: c.Intermediate,
		Next:         toCallTraceJSON(c.Next),
	}
}

func (j *callTraceJSON) callTrace() *CallTrace {
	if j == nil {
		return nil
	}
	return &CallTrace{
		Content:      j.Content,
		Range:        Range{Start: j.Start, End: j.End},
		Intermediate: j.Intermediate,
		Next:         j.Next.callTrace(),
	}
}

func (f Finding) MarshalJSON() ([]byte, error) {
	j := findingJSON{
		CheckID: f.RuleID(),
		Path:    f.Path.Display(),
		Start:   f.Range.Start,
		End:     f.Range.End,
		Extra: extraJSON{
			Message:         f.Message(),
			Metadata:        f.Metadata(),
			Metavars:        make(map[string]metavarJSON, len(f.Bindings)),
			Severity:        f.Severity(),
			EngineKind:      f.Engine,
			Fingerprint:     f.Fingerprint(),
			Lines:           f.Lines(),
			Fix:             f.FixText,
			ValidationState: f.ValidationState,
			SCAInfo:         f.Dependency,
			Facts:           f.Facts,
		},
	}
	if j.Extra.Metadata == nil {
		j.Extra.Metadata = map[string]any{}
	}
	if f.Rule != nil {
		if j.Extra.Fix == nil {
			j.Extra.Fix = f.Rule.Fix
		}
		j.Extra.FixRegex = f.Rule.FixRegexp
		j.Extra.Languages = f.Rule.Languages
	}
	for name, v := range f.Bindings {
		j.Extra.Metavars[name] = metavarJSON{
			Start:           v.Range.Start,
			End:             v.Range.End,
			AbstractContent: v.Content,
			PropagatedValue: v.Propagated,
		}
	}
	if t := f.TaintTrace(); t != nil {
		j.Extra.DataflowTrace = &dataflowJSON{
			TaintSource:      *toCallTraceJSON(&t.Source),
			IntermediateVars: t.Intermediate,
			TaintSink:        *toCallTraceJSON(&t.Sink),
		}
	}
	return json.Marshal(j)
}

// UnmarshalJSON reads a finding from the report shape. The rule payload is
// rebuilt from the result, so findings read this way carry the severity and
// metadata as reported and no overrides.
func (f *Finding) UnmarshalJSON(data []byte) error {
	var j findingJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	if j.CheckID == "" {
		return errors.New("could not unmarshal Finding: missing check_id")
	}

	*f = Finding{
		Rule: &RuleRef{
			ID:        j.CheckID,
			Message:   j.Extra.Message,
			Severity:  j.Extra.Severity,
			Metadata:  j.Extra.Metadata,
			FixRegexp: j.Extra.FixRegex,
			Languages: j.Extra.Languages,
			Rendered:  true,
		},
		Engine:          j.Extra.EngineKind,
		Path:            SourcePath{Internal: j.Path},
		Range:           Range{Start: j.Start, End: j.End},
		ValidationState: j.Extra.ValidationState,
		Dependency:      j.Extra.SCAInfo,
		FixText:         j.Extra.Fix,
		Facts:           j.Extra.Facts,
	}
	if f.Engine == "" {
		f.Engine = EngineOSS
	}
	if len(j.Extra.Metavars) > 0 {
		f.Bindings = make(Bindings, len(j.Extra.Metavars))
		for name, mv := range j.Extra.Metavars {
			f.Bindings[name] = MetavarValue{
				Content:    mv.AbstractContent,
				Range:      Range{Start: mv.Start, End: mv.End},
				Propagated: mv.PropagatedValue,
			}
		}
	}
	if j.Extra.Lines != "" {
		f.Tokens = Ready([]Token{{Content: j.Extra.Lines, Range: f.Range}})
	}
	if d := j.Extra.DataflowTrace; d != nil {
		f.Taint = Ready(&TaintTrace{
			Source:       *d.TaintSource.callTrace(),
			Intermediate: d.IntermediateVars,
			Sink:         *d.TaintSink.callTrace(),
		})
	}
	return nil
}
