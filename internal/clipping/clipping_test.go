package clipping

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/lfpaiva/jornal-agent/internal/extract"
	"github.com/lfpaiva/jornal-agent/internal/retry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestParseResponse(t *testing.T) {
	reply := `Página 2 | **Economia** | Banco Central mantém a taxa básica.

Página 3 | **Política** | Senado aprova projeto | com pipe extra.

linha de ruído sem formato
--- separador ---
Página sem pipes suficientes | só um`

	items := parseResponse(reply)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	if items[0].Page != 2 || items[0].Subject != "**Economia**" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	// Pipes beyond the second separator belong to the summary.
	if items[1].Summary != "Senado aprova projeto | com pipe extra." {
		t.Errorf("unexpected second summary: %q", items[1].Summary)
	}
}

func TestParseResponse_SummaryTruncatedToExactly150(t *testing.T) {
	long := strings.Repeat("a", 300)
	reply := "Página 4 | **Assunto** | " + long

	items := parseResponse(reply)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	sum := []rune(items[0].Summary)
	if len(sum) != 150 {
		t.Errorf("expected exactly 150 chars, got %d", len(sum))
	}
	if !strings.HasSuffix(items[0].Summary, "...") {
		t.Error("truncated summary must end with ellipsis")
	}
}

func TestParseResponse_ShortSummaryKeptVerbatim(t *testing.T) {
	reply := "Página 4 | **Assunto** | curto."
	items := parseResponse(reply)
	if len(items) != 1 || items[0].Summary != "curto." {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestParseResponse_PageNumberFromDigits(t *testing.T) {
	tests := []struct {
		line string
		want int
	}{
		{"Página 12 | **A** | resumo", 12},
		{"Página: 7 (capa interna) | **B** | resumo", 7},
		{"Página ? | **C** | resumo", 0},
	}
	for _, tt := range tests {
		items := parseResponse(tt.line)
		if len(items) != 1 {
			t.Fatalf("line %q: expected 1 item, got %d", tt.line, len(items))
		}
		if items[0].Page != tt.want {
			t.Errorf("line %q: page = %d, want %d", tt.line, items[0].Page, tt.want)
		}
	}
}

func TestChunkPages(t *testing.T) {
	mkPage := func(num, chars int) extract.Page {
		return extract.Page{Number: num, Text: strings.Repeat("x", chars)}
	}

	t.Run("single small chunk", func(t *testing.T) {
		chunks := chunkPages([]extract.Page{mkPage(2, 10), mkPage(3, 10)}, 100)
		if len(chunks) != 1 {
			t.Fatalf("expected 1 chunk, got %d", len(chunks))
		}
		if len(chunks[0]) != 2 {
			t.Errorf("expected 2 pages in chunk, got %d", len(chunks[0]))
		}
	})

	t.Run("splits at budget", func(t *testing.T) {
		chunks := chunkPages([]extract.Page{mkPage(2, 60), mkPage(3, 60), mkPage(4, 60)}, 100)
		if len(chunks) != 3 {
			t.Fatalf("expected 3 chunks, got %d", len(chunks))
		}
	})

	t.Run("oversized page gets own chunk", func(t *testing.T) {
		chunks := chunkPages([]extract.Page{mkPage(2, 10), mkPage(3, 500)}, 100)
		if len(chunks) != 2 {
			t.Fatalf("expected 2 chunks, got %d", len(chunks))
		}
		if chunks[1][0].Number != 3 {
			t.Errorf("oversized page should start its own chunk")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if chunks := chunkPages(nil, 100); chunks != nil {
			t.Errorf("expected nil chunks, got %v", chunks)
		}
	})
}

// fakeCompleter replays canned replies and records prompts.
type fakeCompleter struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

func fastSummarizer(c Completer) *LLMSummarizer {
	return &LLMSummarizer{
		client: c,
		model:  "test-model",
		log:    testLogger(),
		policy: retry.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
			Retryable:   isRateLimit,
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func TestSummarize_ItemsSortedByPageAcrossChunks(t *testing.T) {
	// Two chunks whose items interleave by page number.
	fake := &fakeCompleter{replies: []string{
		"Página 9 | **A** | do primeiro chunk.\nPágina 2 | **B** | do primeiro chunk.",
		"Página 5 | **C** | do segundo chunk.",
	}}
	s := fastSummarizer(fake)

	// Force two chunks by exceeding the budget with the first page.
	big := strings.Repeat("x", maxChunkChars)
	pages := []extract.Page{
		{Number: 2, Text: big},
		{Number: 5, Text: "texto curto"},
	}

	res, err := s.Summarize(context.Background(), pages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Chunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", res.Chunks)
	}
	got := make([]int, len(res.Items))
	for i, it := range res.Items {
		got[i] = it.Page
	}
	want := []int{2, 5, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("items not sorted by page: got %v, want %v", got, want)
		}
	}
}

func TestSummarize_RetriesOnlyRateLimit(t *testing.T) {
	fake := &fakeCompleter{
		errs:    []error{&RateLimitError{Err: errors.New("429")}, nil},
		replies: []string{"", "Página 2 | **A** | ok."},
	}
	s := fastSummarizer(fake)

	res, err := s.Summarize(context.Background(), []extract.Page{{Number: 2, Text: "t"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls != 2 {
		t.Errorf("expected 2 calls (1 retry), got %d", fake.calls)
	}
	if len(res.Items) != 1 {
		t.Errorf("expected 1 item, got %d", len(res.Items))
	}
}

func TestSummarize_ProviderFailureIsFatal(t *testing.T) {
	fake := &fakeCompleter{errs: []error{&LLMError{Err: errors.New("boom")}}}
	s := fastSummarizer(fake)

	_, err := s.Summarize(context.Background(), []extract.Page{{Number: 2, Text: "t"}})
	var llmErr *LLMError
	if !errors.As(err, &llmErr) {
		t.Fatalf("expected LLMError, got %v", err)
	}
	if fake.calls != 1 {
		t.Errorf("expected exactly 1 call for non-retryable failure, got %d", fake.calls)
	}
}

func TestSummarize_PromptCarriesPageMarkers(t *testing.T) {
	fake := &fakeCompleter{replies: []string{""}}
	s := fastSummarizer(fake)

	pages := []extract.Page{
		{Number: 2, Text: "texto dois"},
		{Number: 3, Text: "texto três", OCRUsed: true},
	}
	if _, err := s.Summarize(context.Background(), pages); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	prompt := fake.prompts[0]
	for _, want := range []string{"--- PÁGINA 2 ---", "--- PÁGINA 3 [OCR] ---", "150 caracteres", "IGNORE anúncios"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSummarize_NoPages(t *testing.T) {
	s := fastSummarizer(&fakeCompleter{})
	res, err := s.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("expected no items, got %d", len(res.Items))
	}
	if res.SummaryText == "" {
		t.Error("expected explanatory summary text")
	}
}

func TestSimulatedSummarizer(t *testing.T) {
	s := &simulated{log: testLogger()}
	res, err := s.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 synthetic items, got %d", len(res.Items))
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i-1].Page > res.Items[i].Page {
			t.Error("synthetic items not sorted by page")
		}
	}
	if !strings.Contains(res.SummaryText, "[SIMULADO]") {
		t.Error("synthetic clipping should be marked as simulated")
	}
}
