package generation

// StageDefinition describes one stage of the business plan pipeline.
type StageDefinition struct {
	ID              string
	DisplayName     string
	MaxOutputTokens int
}

// Registry is the ordered catalog of generation stages. Order is load-bearing:
// a stage's prompt may embed the output of any earlier stage, never a later
// one, so reordering changes what context late stages receive.
type Registry struct {
	stages []StageDefinition
}

// NewRegistry builds a registry from an ordered stage list.
func NewRegistry(stages []StageDefinition) *Registry {
	copied := make([]StageDefinition, len(stages))
	copy(copied, stages)
	return &Registry{stages: copied}
}

// DefaultRegistry returns the production stage catalog.
func DefaultRegistry() *Registry {
	return NewRegistry([]StageDefinition{
		{ID: "market", DisplayName: "Market Research", MaxOutputTokens: 2500},
		{ID: "customers", DisplayName: "Customer Profiles", MaxOutputTokens: 2500},
		{ID: "competitors", DisplayName: "Competitor Landscape", MaxOutputTokens: 2500},
		{ID: "businessPlan", DisplayName: "Business Plan", MaxOutputTokens: 2500},
		{ID: "goToMarket", DisplayName: "Go-To-Market", MaxOutputTokens: 2500},
		{ID: "financial", DisplayName: "Financial Model", MaxOutputTokens: 3000},
		{ID: "pitchDeck", DisplayName: "Pitch Deck", MaxOutputTokens: 3500},
		{ID: "team", DisplayName: "Team & Operations", MaxOutputTokens: 2000},
	})
}

// Stages returns the ordered stage list. The slice is a copy; mutating it does
// not affect the registry.
func (r *Registry) Stages() []StageDefinition {
	copied := make([]StageDefinition, len(r.stages))
	copy(copied, r.stages)
	return copied
}

// Len returns the number of stages.
func (r *Registry) Len() int {
	return len(r.stages)
}
