package semmatch

// EngineKind tells which engine tier produced a finding.
type EngineKind string

const (
	EngineOSS EngineKind = "OSS"
	EnginePro EngineKind = "PRO"
)

// MarkExtended returns a copy of f attributed to the extended engine. Nothing
// else about the finding changes, so f and the result are Equal.
func MarkExtended(f Finding) Finding {
	f.Engine = EnginePro
	return f
}
