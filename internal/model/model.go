// Package model defines the core memory data types.
package model

import "time"

// Layer identifies one of the three memory stores.
type Layer string

const (
	LayerIdentity   Layer = "identity"
	LayerExperience Layer = "experience"
	LayerKnowledge  Layer = "knowledge"
)

// Layers is the fixed layer order used by the classifier and retrieval
// ranking. Do not reorder.
var Layers = []Layer{LayerIdentity, LayerExperience, LayerKnowledge}

// ValidLayers are the allowed layer names.
var ValidLayers = map[Layer]bool{
	LayerIdentity:   true,
	LayerExperience: true,
	LayerKnowledge:  true,
}

// Priority returns the retrieval rank of a layer. Identity outranks
// experience outranks knowledge.
func (l Layer) Priority() int {
	switch l {
	case LayerIdentity:
		return 3
	case LayerExperience:
		return 2
	case LayerKnowledge:
		return 1
	}
	return 0
}

// Decision is a routing outcome. It extends Layer with the three
// meta-decisions.
type Decision string

const (
	DecideIdentity   Decision = Decision(LayerIdentity)
	DecideExperience Decision = Decision(LayerExperience)
	DecideKnowledge  Decision = Decision(LayerKnowledge)
	DecideAsk        Decision = "ask"
	DecideConflict   Decision = "conflict"
	DecideNone       Decision = "none"
)

// ToLayer returns the layer a decision targets, or false for meta-decisions.
func (d Decision) ToLayer() (Layer, bool) {
	l := Layer(d)
	if ValidLayers[l] {
		return l, true
	}
	return "", false
}

// Context classifies what part of the user's life an utterance concerns.
type Context string

const (
	ContextGeneral  Context = "general"
	ContextFamily   Context = "family"
	ContextWork     Context = "work"
	ContextCollege  Context = "college"
	ContextPersonal Context = "personal"
	ContextHealth   Context = "health"
	ContextHobby    Context = "hobby"
)

// Contexts is the fixed enum order; ties in context detection break toward
// the earlier entry.
var Contexts = []Context{
	ContextGeneral, ContextFamily, ContextWork, ContextCollege,
	ContextPersonal, ContextHealth, ContextHobby,
}

// ValidContexts are the allowed context names.
var ValidContexts = map[Context]bool{
	ContextGeneral: true, ContextFamily: true, ContextWork: true,
	ContextCollege: true, ContextPersonal: true, ContextHealth: true,
	ContextHobby: true,
}

// RouteSource says which stage of the router produced a result.
type RouteSource string

const (
	SourceRule     RouteSource = "rule"
	SourceCache    RouteSource = "cache"
	SourceML       RouteSource = "ml"
	SourceFallback RouteSource = "fallback"
)

// ForgetIntent is the structured form of a /forget command. The router
// never deletes anything; callers own that decision.
type ForgetIntent struct {
	Operation string `json:"operation"` // always "forget"
	Query     string `json:"query"`
}

// RoutingResult is the outcome of routing one utterance.
type RoutingResult struct {
	Decision      Decision          `json:"decision"`
	Confidence    float64           `json:"confidence"`
	Source        RouteSource       `json:"source"`
	Probabilities map[Layer]float64 `json:"probabilities,omitempty"`
	Forget        *ForgetIntent     `json:"forget,omitempty"`
}

// Tuning constants shared across packages.
const (
	MinImportance       = 0.1  // floor for decayed experience importance
	DecayRate           = 0.95 // per-day multiplier on original importance
	ConfidenceThreshold = 0.6  // below this the router asks
	ConflictMargin      = 0.15 // top-1 minus top-2 below this is a conflict
)

// IdentityFact is an exact key-value attribute of the user. Never embedded.
type IdentityFact struct {
	ID                string    `json:"id"`
	Key               string    `json:"key"`
	Value             string    `json:"value"`
	Category          string    `json:"category"` // identity | preference | trait | boundary
	Confidence        float64   `json:"confidence"`
	ConfirmationCount int       `json:"confirmation_count"`
	Source            string    `json:"source"` // explicit | inferred
	LastConfirmed     time.Time `json:"last_confirmed"`
	CreatedAt         time.Time `json:"created_at"`
}

// ExperienceEntry is a conversational event whose importance decays.
type ExperienceEntry struct {
	ID                 string    `json:"id"`
	Content            string    `json:"content"`
	Context            Context   `json:"context"`
	Role               string    `json:"role"` // user | assistant
	Importance         float64   `json:"importance"`
	OriginalImportance float64   `json:"original_importance"`
	Embedding          []float32 `json:"embedding,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// KnowledgeEntry is a durable skill or concept. Embedding is mandatory.
type KnowledgeEntry struct {
	ID                 string    `json:"id"`
	Content            string    `json:"content"`
	Category           string    `json:"category"` // skill | concept | fact
	Embedding          []float32 `json:"embedding"`
	Confidence         float64   `json:"confidence"`
	ReinforcementCount int       `json:"reinforcement_count"`
	CreatedAt          time.Time `json:"created_at"`
}

// Correction is one teaching event, kept for retraining.
type Correction struct {
	Text      string    `json:"text"`
	Context   []string  `json:"context,omitempty"`
	Layer     Layer     `json:"correct_layer"`
	CreatedAt time.Time `json:"created_at"`
}

// Conflict describes an identity fact that contradicts an incoming value.
type Conflict struct {
	Key                string  `json:"key"`
	ExistingID         string  `json:"existing_id"`
	ExistingValue      string  `json:"existing_value"`
	NewValue           string  `json:"new_value"`
	ExistingConfidence float64 `json:"existing_confidence"`
	SuggestedAction    string  `json:"suggested_action"` // ask_user | update
}

// ConflictAction is the caller's verdict on a surfaced conflict.
type ConflictAction string

const (
	KeepExisting ConflictAction = "keep_existing"
	UpdateNew    ConflictAction = "update_new"
	AskLater     ConflictAction = "ask_later"
)

// ValidConflictActions are the allowed resolution actions.
var ValidConflictActions = map[ConflictAction]bool{
	KeepExisting: true, UpdateNew: true, AskLater: true,
}

// WriteRequest asks the pipeline to remember one utterance.
type WriteRequest struct {
	Content       string   `json:"content"`
	Role          string   `json:"role"`    // user | assistant
	Context       Context  `json:"context"` // defaults to general
	RecentContext []string `json:"recent_context,omitempty"`
	ForceLayer    Layer    `json:"force_layer,omitempty"`
}

// WriteResult reports what the write pipeline did.
type WriteResult struct {
	Success  bool          `json:"success"`
	Layer    Layer         `json:"layer,omitempty"`
	ID       string        `json:"id,omitempty"`
	Conflict *Conflict     `json:"conflict,omitempty"`
	Forget   *ForgetIntent `json:"forget,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// RetrieveOptions configures retrieval. Zero values mean the defaults.
type RetrieveOptions struct {
	ContextFilter     Context `json:"context_filter,omitempty"`
	IncludeIdentity   *bool   `json:"include_identity,omitempty"`
	IncludeExperience *bool   `json:"include_experience,omitempty"`
	IncludeKnowledge  *bool   `json:"include_knowledge,omitempty"`
	TopK              int     `json:"top_k,omitempty"`              // default 5
	SemanticThreshold float64 `json:"semantic_threshold,omitempty"` // default 0.4
}

const (
	DefaultTopK              = 5
	DefaultSemanticThreshold = 0.4
)

// MemoryResult is one ranked retrieval hit.
type MemoryResult struct {
	Layer      Layer          `json:"layer"`
	Content    string         `json:"content"`
	Confidence float64        `json:"confidence"`
	Similarity *float64       `json:"similarity,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
