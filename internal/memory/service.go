// Package memory implements the write and retrieval pipelines over the
// three layered stores.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/layermem/layermem/internal/embedding"
	"github.com/layermem/layermem/internal/model"
	"github.com/layermem/layermem/internal/router"
	"github.com/layermem/layermem/internal/rules"
	"github.com/layermem/layermem/internal/store"
)

// ErrUnknownLayer is returned for layer names outside the three stores.
var ErrUnknownLayer = errors.New("unknown layer")

// Service is the public surface of the memory core: routing writes,
// layered retrieval, conflict resolution, teaching and maintenance.
type Service struct {
	store  *store.SQLiteStore
	router *router.Router
	emb    *embedding.Provider
	dbPath string
	log    *zap.Logger

	// writeMu serializes extraction, conflict check and persist so no two
	// writes to the same identity key interleave.
	writeMu sync.Mutex
}

// NewService wires the pipelines together. A nil logger is replaced with a
// nop.
func NewService(st *store.SQLiteStore, rt *router.Router, emb *embedding.Provider, dbPath string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, router: rt, emb: emb, dbPath: dbPath, log: log}
}

// Init warms the embedding provider and prepares the classifier. Embedding
// failures are not fatal: identity writes and retrieval keep working.
func (s *Service) Init(ctx context.Context) error {
	if err := s.emb.Ensure(ctx); err != nil {
		s.log.Warn("embeddings unavailable at init", zap.Error(err))
		return nil
	}
	if err := s.router.Ensure(ctx); err != nil {
		return fmt.Errorf("prepare router: %w", err)
	}
	return nil
}

// Write routes one utterance into its memory layer.
func (s *Service) Write(ctx context.Context, req model.WriteRequest) (*model.WriteResult, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return &model.WriteResult{Success: false, Message: "content is empty"}, nil
	}
	role := req.Role
	if role == "" {
		role = "user"
	}
	reqContext := req.Context
	if reqContext == "" {
		reqContext = model.ContextGeneral
	}
	if !model.ValidContexts[reqContext] {
		return &model.WriteResult{Success: false, Message: fmt.Sprintf("unknown context %q", reqContext)}, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var target model.Layer
	if req.ForceLayer != "" {
		if !model.ValidLayers[req.ForceLayer] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, req.ForceLayer)
		}
		target = req.ForceLayer
	} else {
		route, err := s.router.Route(ctx, content, req.RecentContext)
		if err != nil {
			return nil, fmt.Errorf("route: %w", err)
		}
		if route.Forget != nil {
			return &model.WriteResult{
				Success: true,
				Forget:  route.Forget,
				Message: "forget intent surfaced; nothing stored",
			}, nil
		}
		switch route.Decision {
		case model.DecideNone:
			return &model.WriteResult{Success: false, Message: "blocked by safety filter"}, nil
		case model.DecideAsk, model.DecideConflict:
			// Uncertain routing defaults to the experience layer.
			target = model.LayerExperience
		default:
			l, ok := route.Decision.ToLayer()
			if !ok {
				return nil, fmt.Errorf("unexpected decision %q", route.Decision)
			}
			target = l
		}
	}

	switch target {
	case model.LayerIdentity:
		return s.writeIdentity(ctx, content)
	case model.LayerExperience:
		return s.writeExperience(ctx, content, role, reqContext)
	case model.LayerKnowledge:
		return s.writeKnowledge(ctx, content)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, target)
}

func (s *Service) writeIdentity(ctx context.Context, content string) (*model.WriteResult, error) {
	key, value := rules.Extract(content)
	if key == "" {
		return &model.WriteResult{
			Success: false,
			Message: "could not extract an identity fact from the text",
		}, nil
	}

	existing, err := s.store.GetFactByKey(ctx, key)
	switch {
	case err == nil:
		if strings.EqualFold(existing.Value, value) {
			if err := s.store.ReinforceFact(ctx, existing.ID, existing.Confidence+0.1); err != nil {
				return nil, fmt.Errorf("reinforce fact: %w", err)
			}
			return &model.WriteResult{
				Success: true,
				Layer:   model.LayerIdentity,
				ID:      existing.ID,
				Message: fmt.Sprintf("reinforced %s=%s", key, existing.Value),
			}, nil
		}

		suggested := "update"
		if existing.Confidence > 0.8 {
			suggested = "ask_user"
		}
		return &model.WriteResult{
			Success: false,
			Layer:   model.LayerIdentity,
			Conflict: &model.Conflict{
				Key:                key,
				ExistingID:         existing.ID,
				ExistingValue:      existing.Value,
				NewValue:           value,
				ExistingConfidence: existing.Confidence,
				SuggestedAction:    suggested,
			},
			Message: fmt.Sprintf("conflicting value for %s", key),
		}, nil
	case errors.Is(err, store.ErrNotFound):
		category := "preference"
		if key == "name" {
			category = "identity"
		}
		fact, err := s.store.PutFact(ctx, &model.IdentityFact{
			Key:               key,
			Value:             value,
			Category:          category,
			Confidence:        0.8,
			ConfirmationCount: 1,
			Source:            "explicit",
		})
		if err != nil {
			return nil, fmt.Errorf("store fact: %w", err)
		}
		return &model.WriteResult{
			Success: true,
			Layer:   model.LayerIdentity,
			ID:      fact.ID,
			Message: fmt.Sprintf("stored %s=%s", key, value),
		}, nil
	default:
		return nil, fmt.Errorf("lookup fact: %w", err)
	}
}

func (s *Service) writeExperience(ctx context.Context, content, role string, reqContext model.Context) (*model.WriteResult, error) {
	importance := ScoreImportance(content, role)

	entryContext := reqContext
	if detected := DetectContext(content); detected != model.ContextGeneral {
		entryContext = detected
	}

	var vec []float32
	if err := s.emb.Ensure(ctx); err == nil {
		v, err := s.emb.Embed(ctx, content)
		if err != nil {
			s.log.Warn("experience stored without embedding", zap.Error(err))
		} else {
			vec = v
		}
	}

	entry, err := s.store.PutExperience(ctx, &model.ExperienceEntry{
		Content:            content,
		Context:            entryContext,
		Role:               role,
		Importance:         importance,
		OriginalImportance: importance,
		Embedding:          vec,
	})
	if err != nil {
		return nil, fmt.Errorf("store experience: %w", err)
	}
	return &model.WriteResult{
		Success: true,
		Layer:   model.LayerExperience,
		ID:      entry.ID,
		Message: fmt.Sprintf("stored experience (%s, importance %.2f)", entryContext, importance),
	}, nil
}

func (s *Service) writeKnowledge(ctx context.Context, content string) (*model.WriteResult, error) {
	vec, err := s.emb.Embed(ctx, content)
	if err != nil {
		return &model.WriteResult{
			Success: false,
			Layer:   model.LayerKnowledge,
			Message: "knowledge writes require embeddings: " + err.Error(),
		}, nil
	}

	entry, err := s.store.PutKnowledge(ctx, &model.KnowledgeEntry{
		Content:            content,
		Category:           "skill",
		Embedding:          vec,
		Confidence:         0.6,
		ReinforcementCount: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("store knowledge: %w", err)
	}
	return &model.WriteResult{
		Success: true,
		Layer:   model.LayerKnowledge,
		ID:      entry.ID,
		Message: "stored knowledge",
	}, nil
}

// Retrieve runs the layered query: exact identity lookup first, then
// semantic search over experience and knowledge when embeddings are ready.
func (s *Service) Retrieve(ctx context.Context, query string, opts model.RetrieveOptions) ([]model.MemoryResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = model.DefaultTopK
	}
	threshold := opts.SemanticThreshold
	if threshold == 0 {
		threshold = model.DefaultSemanticThreshold
	}
	include := func(p *bool) bool { return p == nil || *p }

	var results []model.MemoryResult

	if include(opts.IncludeIdentity) {
		facts, err := s.store.SearchFacts(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("identity search: %w", err)
		}
		kept := 0
		for _, f := range facts {
			if f.Confidence < 0.5 || kept == 3 {
				continue
			}
			kept++
			results = append(results, model.MemoryResult{
				Layer:      model.LayerIdentity,
				Content:    f.Key + ": " + f.Value,
				Confidence: f.Confidence,
				CreatedAt:  f.CreatedAt,
				Metadata: map[string]any{
					"key":                f.Key,
					"value":              f.Value,
					"category":           f.Category,
					"confirmation_count": f.ConfirmationCount,
				},
			})
		}
	}

	semantic := include(opts.IncludeExperience) || include(opts.IncludeKnowledge)
	if semantic && s.emb.Ready() {
		qv, err := s.emb.Embed(ctx, query)
		if err != nil {
			s.log.Warn("query embedding failed, identity results only", zap.Error(err))
			qv = nil
		}

		if qv != nil && include(opts.IncludeExperience) {
			hits, err := s.store.SearchExperiences(ctx, qv, topK, threshold, opts.ContextFilter)
			if err != nil {
				return nil, fmt.Errorf("experience search: %w", err)
			}
			for _, h := range hits {
				sim := h.Similarity
				results = append(results, model.MemoryResult{
					Layer:      model.LayerExperience,
					Content:    h.Entry.Content,
					Confidence: h.Entry.Importance,
					Similarity: &sim,
					CreatedAt:  h.Entry.CreatedAt,
					Metadata: map[string]any{
						"context": string(h.Entry.Context),
						"role":    h.Entry.Role,
						"score":   h.Score,
					},
				})
			}
		}

		if qv != nil && include(opts.IncludeKnowledge) {
			// Knowledge uses a slightly looser bar.
			hits, err := s.store.SearchKnowledge(ctx, qv, topK, 0.8*threshold)
			if err != nil {
				return nil, fmt.Errorf("knowledge search: %w", err)
			}
			for _, h := range hits {
				sim := h.Similarity
				results = append(results, model.MemoryResult{
					Layer:      model.LayerKnowledge,
					Content:    h.Entry.Content,
					Confidence: h.Entry.Confidence,
					Similarity: &sim,
					CreatedAt:  h.Entry.CreatedAt,
					Metadata: map[string]any{
						"category":            h.Entry.Category,
						"reinforcement_count": h.Entry.ReinforcementCount,
						"score":               h.Score,
					},
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		pi, pj := results[i].Layer.Priority(), results[j].Layer.Priority()
		if pi != pj {
			return pi > pj
		}
		return resultRank(results[i]) > resultRank(results[j])
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// resultRank orders results within a layer: similarity when present,
// confidence otherwise.
func resultRank(r model.MemoryResult) float64 {
	if r.Similarity != nil {
		return *r.Similarity
	}
	return r.Confidence
}

// ResolveConflict applies the caller's verdict on a surfaced conflict.
func (s *Service) ResolveConflict(ctx context.Context, c model.Conflict, action model.ConflictAction) error {
	if !model.ValidConflictActions[action] {
		return fmt.Errorf("unknown conflict action %q", action)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	switch action {
	case model.KeepExisting:
		return s.store.ReinforceFact(ctx, c.ExistingID, c.ExistingConfidence+0.1)
	case model.UpdateNew:
		return s.store.ReplaceFactValue(ctx, c.ExistingID, c.NewValue)
	case model.AskLater:
		return nil
	}
	return nil
}

// FactByKey returns the canonical (highest-confidence) fact for a key.
func (s *Service) FactByKey(ctx context.Context, key string) (*model.IdentityFact, error) {
	return s.store.GetFactByKey(ctx, key)
}

// Teach records a correction and updates the router online.
func (s *Service) Teach(ctx context.Context, text string, contextLines []string, correct model.Layer) error {
	if !model.ValidLayers[correct] {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, correct)
	}
	return s.router.Learn(ctx, text, contextLines, correct)
}

// Retrain rebuilds the classifier from the seed corpus plus the persisted
// correction log.
func (s *Service) Retrain(ctx context.Context) error {
	return s.router.Retrain(ctx)
}

// ApplyDecay runs one importance decay sweep over the experience layer.
func (s *Service) ApplyDecay(ctx context.Context) (int, error) {
	return s.store.ApplyDecay(ctx)
}

// Reinforce bumps a knowledge entry after a confirmed retrieval.
func (s *Service) Reinforce(ctx context.Context, id string) error {
	return s.store.ReinforceKnowledge(ctx, id)
}

// List returns every entry in a layer.
func (s *Service) List(ctx context.Context, layer model.Layer) (any, error) {
	switch layer {
	case model.LayerIdentity:
		return s.store.ListFacts(ctx)
	case model.LayerExperience:
		return s.store.ListExperiences(ctx, "", 0)
	case model.LayerKnowledge:
		return s.store.ListKnowledge(ctx, "")
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, layer)
}

// Count returns the number of entries in a layer.
func (s *Service) Count(ctx context.Context, layer model.Layer) (int, error) {
	switch layer {
	case model.LayerIdentity:
		return s.store.CountIdentity(ctx)
	case model.LayerExperience:
		return s.store.CountExperiences(ctx)
	case model.LayerKnowledge:
		return s.store.CountKnowledge(ctx)
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownLayer, layer)
}

// Clear empties a layer.
func (s *Service) Clear(ctx context.Context, layer model.Layer) error {
	switch layer {
	case model.LayerIdentity:
		return s.store.ClearIdentity(ctx)
	case model.LayerExperience:
		return s.store.ClearExperiences(ctx)
	case model.LayerKnowledge:
		return s.store.ClearKnowledge(ctx)
	}
	return fmt.Errorf("%w: %s", ErrUnknownLayer, layer)
}

// Delete removes a single entry from a layer by id.
func (s *Service) Delete(ctx context.Context, layer model.Layer, id string) error {
	switch layer {
	case model.LayerIdentity:
		return s.store.DeleteFact(ctx, id)
	case model.LayerExperience:
		return s.store.DeleteExperience(ctx, id)
	case model.LayerKnowledge:
		return s.store.DeleteKnowledge(ctx, id)
	}
	return fmt.Errorf("%w: %s", ErrUnknownLayer, layer)
}

// Stats reports per-layer counts and router-state presence.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx, s.dbPath)
}
