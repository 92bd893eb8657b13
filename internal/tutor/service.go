// Package tutor is the chat boundary with the text-generation service: a
// math-only tutoring conversation carried as alternating user/model
// turns. Rendering of the returned LaTeX is the caller's concern; this
// package only splits replies into the text/formula segments the caller
// consumes.
package tutor

import (
	"context"
	"fmt"
	"strings"

	"estuda/internal/llm"
)

// systemPrompt restricts the tutor to stepwise math help with
// dollar-delimited LaTeX formulas.
const systemPrompt = `Você é o "CalculAI", um professor de matemática especializado em reforço escolar para o Ensino Médio. Sua única área de conhecimento é MATEMÁTICA. Recuse educadamente qualquer pergunta que não seja sobre Matemática. TODAS as expressões, equações e fórmulas devem ser formatadas usando sintaxe LaTeX, delimitadas por '$'. O foco é sempre na explicação passo a passo (com $LaTeX$).`

// Segment is one piece of a tutor reply: plain text or a LaTeX formula.
type Segment struct {
	Text string
	Math bool
}

// Message is one turn of a tutoring conversation.
type Message struct {
	Role    string // "user" or "model"
	Content string
}

// Conversation accumulates the exchange so follow-up questions keep
// their context.
type Conversation struct {
	Messages []Message
}

// Service answers math questions over the generation client.
type Service struct {
	client   llm.Client
	observer llm.Observer
}

// New creates a tutor Service backed by the generation client.
func New(client llm.Client, observer llm.Observer) *Service {
	if observer == nil {
		observer = llm.NoopObserver{}
	}
	return &Service{client: client, observer: observer}
}

// Ask sends question with the conversation so far and returns the updated
// conversation plus the reply split into segments. The input conversation
// is not mutated.
func (s *Service) Ask(ctx context.Context, conv *Conversation, question string) (*Conversation, []Segment, error) {
	if conv == nil {
		conv = &Conversation{}
	}

	history := make([]llm.Turn, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		history = append(history, llm.Turn{Role: m.Role, Content: m.Content})
	}

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskTutor,
		SystemPrompt: systemPrompt,
		History:      history,
		UserPrompt:   question,
	})
	if err != nil {
		return conv, nil, fmt.Errorf("asking tutor: %w", err)
	}

	updated := &Conversation{
		Messages: make([]Message, len(conv.Messages), len(conv.Messages)+2),
	}
	copy(updated.Messages, conv.Messages)
	updated.Messages = append(updated.Messages,
		Message{Role: "user", Content: question},
		Message{Role: "model", Content: resp.Text},
	)

	return updated, SplitSegments(resp.Text), nil
}

// SplitSegments splits a reply at '$' delimiters: odd-numbered pieces are
// LaTeX formulas, even-numbered pieces plain text. Empty pieces are
// dropped. An unbalanced trailing delimiter leaves the remainder as text.
func SplitSegments(reply string) []Segment {
	parts := strings.Split(reply, "$")

	// Unbalanced: the final "formula" never closed, treat it as text.
	unbalanced := len(parts)%2 == 0

	var segments []Segment
	for i, p := range parts {
		if p == "" {
			continue
		}
		math := i%2 == 1
		if math && unbalanced && i == len(parts)-1 {
			math = false
		}
		segments = append(segments, Segment{Text: p, Math: math})
	}
	return segments
}
