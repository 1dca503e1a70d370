package pipeline

// FileState enumerates the monotone per-file state machine in §4.12.
type FileState int

// Canonical states, in transition order. ComplexityDone/StructureDone/
// ImpactDone/ClonesDone/CoverageDone are modeled as independent bits on
// FileRecord rather than as an enum fan-out, since a file can complete them
// in any relative order (they're only partially ordered, per §5).
const (
	StateDiscovered FileState = iota
	StateParsed
	StateExtracted
	StateFeaturesDone
	StateRefactoringDone
	StateScored
	StateAggregated
)

// String renders the state name for logging/debugging.
func (s FileState) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateParsed:
		return "parsed"
	case StateExtracted:
		return "extracted"
	case StateFeaturesDone:
		return "features_done"
	case StateRefactoringDone:
		return "refactoring_done"
	case StateScored:
		return "scored"
	case StateAggregated:
		return "aggregated"
	default:
		return "unknown"
	}
}

// StageFlags tracks which of the five parallel per-entity stages named in
// §4.12 (complexity, structure, impact/dependency, clones, coverage) have
// completed for a file, since those five are only partially ordered with
// respect to each other.
type StageFlags struct {
	ComplexityDone bool
	StructureDone  bool
	ImpactDone     bool
	ClonesDone     bool
	CoverageDone   bool
}

// AllDone reports whether every enabled stage in flags is complete,
// measured against which stages the caller enabled.
func (f StageFlags) AllDone(enabled StageFlags) bool {
	if enabled.ComplexityDone && !f.ComplexityDone {
		return false
	}

	if enabled.StructureDone && !f.StructureDone {
		return false
	}

	if enabled.ImpactDone && !f.ImpactDone {
		return false
	}

	if enabled.ClonesDone && !f.ClonesDone {
		return false
	}

	if enabled.CoverageDone && !f.CoverageDone {
		return false
	}

	return true
}

// FileRecord tracks one discovered file's progress through the state
// machine. A fault at any stage marks State unchanged from its
// pre-fault value and records the fault in Warning; only a
// Discovered->Parsed fault (Fatal) drops the file from later stages
// (§4.12).
type FileRecord struct {
	Path    string
	State   FileState
	Stages  StageFlags
	Fatal   bool
	Warning string
}
