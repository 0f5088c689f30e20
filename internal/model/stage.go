package model

// StageID names a pipeline stage
type StageID string

const (
	StageIngest     StageID = "ingest"     // Normalize raw input
	StagePreprocess StageID = "preprocess" // Segment and annotate
	StageEnrich     StageID = "enrich"     // Optional retrieval enrichment
	StageReduce     StageID = "reduce"     // Atomic claim reduction
	StageSymbolize  StageID = "symbolize"  // Legend and logical form candidates
	StageCNF        StageID = "cnf"        // Conjunctive normal form
	StageValidate   StageID = "validate"   // Coverage and contradiction checks
	StageAssemble   StageID = "assemble"   // Final result assembly
)

func (s StageID) String() string {
	return string(s)
}
