package site

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here for compile-time safety.
type StageName string

// Canonical stage names, in pipeline order.
const (
	StagePrepareOutput  StageName = "prepare_output"
	StageCopyAssets     StageName = "copy_assets"
	StageCopyResources  StageName = "copy_resources"
	StageRegisterNav    StageName = "register_nav"
	StageDiscoverDocs   StageName = "discover_docs"
	StageConvertDocs    StageName = "convert_docs"
	StageSubIndexes     StageName = "sub_indexes"
	StageAggregateIndex StageName = "aggregate_index"
	StageArchiveSelf    StageName = "archive_self"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline accumulates stage definitions in execution order.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 16)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage when cond holds.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns the accumulated defs.
func (p *Pipeline) Build() []StageDef { return p.Defs }
