package clipping

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/lfpaiva/jornal-agent/internal/config"
	"github.com/lfpaiva/jornal-agent/internal/extract"
	"github.com/lfpaiva/jornal-agent/internal/retry"
)

// Summarizer distills extracted pages into the daily clipping.
type Summarizer interface {
	Summarize(ctx context.Context, pages []extract.Page) (*Result, error)
}

// New returns the summarizer implementation for the run mode.
func New(cfg *config.RunConfig, log *slog.Logger) Summarizer {
	if cfg.Simulate {
		return &simulated{log: log}
	}
	return &LLMSummarizer{
		client: NewOpenAIClient(cfg),
		model:  cfg.LLMModel,
		log:    log,
		policy: retry.Default(isRateLimit),
		// One request per second keeps sequential chunk calls under the
		// provider's burst limits.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func isRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// LLMSummarizer is the real implementation: one sequential model call per
// chunk, rate-limit retries only, stable page ordering across chunks.
type LLMSummarizer struct {
	client  Completer
	model   string
	log     *slog.Logger
	policy  retry.Policy
	limiter *rate.Limiter
}

func (s *LLMSummarizer) Summarize(ctx context.Context, pages []extract.Page) (*Result, error) {
	if len(pages) == 0 {
		s.log.Warn("no pages to summarize")
		return &Result{SummaryText: "Nenhum conteúdo para processar.", Model: s.model}, nil
	}

	chunks := chunkPages(pages, maxChunkChars)
	s.log.Info("pages batched for summarization", "pages", len(pages), "chunks", len(chunks))

	var allItems []Item
	for i, chunk := range chunks {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		s.log.Info("summarizing chunk", "chunk", i+1, "of", len(chunks), "pages", len(chunk))

		prompt := buildPrompt(chunk)
		var reply string
		err := s.policy.Do(ctx, s.log, "llm", func() error {
			var err error
			reply, err = s.client.Complete(ctx, prompt)
			return err
		})
		if err != nil {
			return nil, err
		}

		items := parseResponse(reply)
		s.log.Debug("chunk parsed", "chunk", i+1, "items", len(items))
		allItems = append(allItems, items...)
	}

	sortItems(allItems)

	return &Result{
		SummaryText: formatSummary(allItems),
		Items:       allItems,
		Chunks:      len(chunks),
		Model:       s.model,
	}, nil
}

// simulated returns a fixed clipping without touching the network.
type simulated struct {
	log *slog.Logger
}

const simulatedReply = `Página 2 | **Economia** | [SIMULADO] Exemplo de notícia econômica.

Página 3 | **Política** | [SIMULADO] Exemplo de notícia política.

Página 5 | **Local** | [SIMULADO] Exemplo de notícia local.`

func (s *simulated) Summarize(_ context.Context, pages []extract.Page) (*Result, error) {
	s.log.Warn("simulation mode: returning synthetic clipping")
	items := parseResponse(simulatedReply)
	sortItems(items)
	return &Result{
		SummaryText: formatSummary(items),
		Items:       items,
		Chunks:      1,
		Model:       "simulated",
	}, nil
}
