// Package chat implements the retrieval-augmented responder: it grounds the
// latest user question in retrieved document chunks and streams a completion
// from the language model.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/spassist/sp-assistant/config"
	"github.com/spassist/sp-assistant/models"
	"github.com/spassist/sp-assistant/repositories"
	"github.com/spassist/sp-assistant/services"
	"github.com/spassist/sp-assistant/services/providers"
	"go.uber.org/zap"
)

const systemPromptFormat = `You are an assistant that answers questions using only the provided document context.

Rules:
- Answer strictly from the context below. Do not use outside knowledge.
- Cite the source document name when you use information from it.
- If the context does not contain enough information to answer, say so plainly.
- Never fabricate facts, numbers, or citations.

Context:
%s`

const noContextNotice = "No relevant information was found in the document store for this question."

// Service orchestrates retrieval and completion for one chat turn
type Service struct {
	embedder  providers.Embedder
	repo      repositories.ChunkRepository
	streamer  providers.ChatStreamer
	retrieval config.RetrievalConfig
	logger    *zap.Logger
}

// NewService creates a new chat service
func NewService(embedder providers.Embedder, repo repositories.ChunkRepository, streamer providers.ChatStreamer, retrieval config.RetrievalConfig, logger *zap.Logger) *Service {
	return &Service{
		embedder:  embedder,
		repo:      repo,
		streamer:  streamer,
		retrieval: retrieval,
		logger:    logger,
	}
}

// Respond handles one chat turn: embed the latest user message, search for
// relevant chunks, prepend a grounding system message, and stream the
// completion. Retrieval failures degrade the turn to an ungrounded answer
// instead of failing it; only completion failures surface to the caller.
func (s *Service) Respond(ctx context.Context, messages []providers.Message) (*providers.CompletionStream, error) {
	if len(messages) == 0 {
		return nil, services.ErrNoMessages
	}

	contextBlock := noContextNotice
	question := lastUserMessage(messages)
	if question == "" {
		s.logger.Info("no user message in conversation, answering without context")
	} else {
		contextBlock = s.retrieveContext(ctx, question)
	}

	systemMsg := providers.Message{
		Role:    "system",
		Content: fmt.Sprintf(systemPromptFormat, contextBlock),
	}

	req := &providers.CompletionRequest{
		Messages: append([]providers.Message{systemMsg}, messages...),
	}

	stream, err := s.streamer.StreamCompletion(ctx, req)
	if err != nil {
		return nil, services.WrapExternal("completion request failed", err)
	}
	return stream, nil
}

// retrieveContext embeds the question and renders the matched chunks as a
// context block, grouped per source document. Any failure along the way is
// logged and collapses to the no-context notice: a chat turn without
// grounding beats no chat turn at all.
func (s *Service) retrieveContext(ctx context.Context, question string) string {
	embedding, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		s.logger.Warn("query embedding failed, answering without context",
			zap.Error(err))
		return noContextNotice
	}

	filter := repositories.SearchFilter{}
	if s.retrieval.DocumentName != "" {
		name := s.retrieval.DocumentName
		filter.DocumentName = &name
	}

	results, err := s.repo.Search(ctx, embedding, s.retrieval.MatchThreshold, s.retrieval.MatchCount, filter)
	if err != nil {
		s.logger.Warn("similarity search failed, answering without context",
			zap.Error(err))
		return noContextNotice
	}

	if len(results) == 0 {
		s.logger.Info("no chunks above similarity threshold",
			zap.Float64("threshold", s.retrieval.MatchThreshold))
		return noContextNotice
	}

	s.logger.Debug("retrieved grounding chunks",
		zap.Int("count", len(results)),
		zap.Float64("top_similarity", results[0].Similarity))

	return renderContext(results)
}

// renderContext groups results by source document, preserving the similarity
// order of first appearance, and annotates each chunk with its match
// percentage.
func renderContext(results []models.SearchResult) string {
	var order []string
	grouped := make(map[string][]models.SearchResult)
	for _, res := range results {
		if _, ok := grouped[res.DocumentName]; !ok {
			order = append(order, res.DocumentName)
		}
		grouped[res.DocumentName] = append(grouped[res.DocumentName], res)
	}

	var b strings.Builder
	for i, name := range order {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Document: %s\n", name)
		for _, res := range grouped[name] {
			fmt.Fprintf(&b, "\n[relevance %.1f%%]\n%s\n", res.Similarity*100, res.Content)
		}
	}
	return b.String()
}

// lastUserMessage returns the content of the most recent user-role message.
func lastUserMessage(messages []providers.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}
