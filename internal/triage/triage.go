// Package triage classifies incoming support questions against the knowledge
// base. It embeds the question, fetches the closest previously answered
// question from the vector store, and maps the similarity score to an action
// tier: answer automatically, draft for human review, or escalate.
package triage

import (
	"context"
	"fmt"

	"github.com/StevenCC12/carl-vector-knowledge-base/internal/kb"
)

// Action is the routing decision for a triaged question.
type Action string

const (
	// ActionAutoReply means the match is confident enough to send the stored
	// answer without human review.
	ActionAutoReply Action = "auto-reply"

	// ActionDraftForReview means the stored answer is probably right but a
	// human should approve it before sending.
	ActionDraftForReview Action = "draft-for-review"

	// ActionEscalate means no stored answer is similar enough; a human must
	// handle the question from scratch.
	ActionEscalate Action = "escalate-to-human"
)

// Fallback messages returned when no answer can be served.
const (
	// msgNoMatch is returned when the knowledge base has no entries at all.
	msgNoMatch = "No similar question found in knowledge base."

	// msgLowConfidence is returned when the best match scores at or below
	// the draft threshold.
	msgLowConfidence = "No highly similar answer found in knowledge base."
)

// Policy holds the two score thresholds that partition matches into tiers.
type Policy struct {
	// AutoThreshold is the minimum score for an auto-reply (inclusive).
	AutoThreshold float32

	// DraftThreshold is the score above which (exclusive) a match becomes a
	// draft-for-review. At or below this score the question is escalated.
	DraftThreshold float32
}

// DefaultPolicy returns the standard thresholds: auto-reply at 0.95 and
// above, draft-for-review strictly between 0.80 and 0.95, escalate otherwise.
func DefaultPolicy() Policy {
	return Policy{AutoThreshold: 0.95, DraftThreshold: 0.80}
}

// Validate reports whether the policy is internally consistent.
func (p Policy) Validate() error {
	if p.AutoThreshold <= 0 || p.AutoThreshold > 1 {
		return fmt.Errorf("triage: auto threshold %v out of range (0, 1]", p.AutoThreshold)
	}
	if p.DraftThreshold < 0 || p.DraftThreshold >= p.AutoThreshold {
		return fmt.Errorf("triage: draft threshold %v must be in [0, %v)", p.DraftThreshold, p.AutoThreshold)
	}
	return nil
}

// Classify maps a similarity score to an action tier.
// Boundary behaviour: score == AutoThreshold is an auto-reply,
// score == DraftThreshold is an escalation.
func (p Policy) Classify(score float32) Action {
	switch {
	case score >= p.AutoThreshold:
		return ActionAutoReply
	case score > p.DraftThreshold:
		return ActionDraftForReview
	default:
		return ActionEscalate
	}
}

// Result is the outcome of triaging one question.
type Result struct {
	// Action is the routing decision.
	Action Action

	// Message is the text to send or draft. For escalations this is a fixed
	// fallback string, otherwise the stored answer text.
	Message string

	// Score is the similarity score of the best match (0 when no match).
	Score float32

	// RetrievedQuestion is the stored question that matched. Empty when the
	// knowledge base returned nothing.
	RetrievedQuestion string
}

// Service triages questions using an embedder and a vector store.
// It is safe for concurrent use.
type Service struct {
	// embedder converts the incoming question into a dense vector.
	embedder kb.Embedder

	// store performs the top-1 similarity search over Q&A entries.
	store kb.VectorStore

	// policy holds the score thresholds.
	policy Policy

	// candidates is the number of matches requested from the store. Only the
	// top result drives the decision, but a couple of spares cost nothing.
	candidates int
}

// NewService constructs a triage Service. A zero-value policy is replaced
// with DefaultPolicy.
func NewService(embedder kb.Embedder, store kb.VectorStore, policy Policy) (*Service, error) {
	if embedder == nil {
		return nil, fmt.Errorf("triage: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("triage: store must not be nil")
	}
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		embedder:   embedder,
		store:      store,
		policy:     policy,
		candidates: 1,
	}, nil
}

// Policy returns the thresholds this service applies.
func (s *Service) Policy() Policy { return s.policy }

// Triage embeds the question, searches for the closest stored question, and
// applies the threshold policy to the best match.
func (s *Service) Triage(ctx context.Context, question string) (*Result, error) {
	embeddings, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("triage: embedding question failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("triage: embedder returned no vector for question")
	}

	matches, err := s.store.Search(ctx, embeddings[0], s.candidates)
	if err != nil {
		return nil, fmt.Errorf("triage: vector search failed: %w", err)
	}

	if len(matches) == 0 {
		return &Result{
			Action:  ActionEscalate,
			Message: msgNoMatch,
			Score:   0,
		}, nil
	}

	top := matches[0]
	res := &Result{
		Action:            s.policy.Classify(top.Score),
		Score:             top.Score,
		RetrievedQuestion: top.Content,
	}
	if res.Action == ActionEscalate {
		res.Message = msgLowConfidence
	} else {
		res.Message = top.Answer
	}

	return res, nil
}
