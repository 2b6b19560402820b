package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lfpaiva/jornal-agent/internal/clipping"
	"github.com/lfpaiva/jornal-agent/internal/extract"
)

// RunResult aggregates the artifacts of a successful processing phase.
type RunResult struct {
	SummaryText      string
	Items            []clipping.Item
	TotalPages       int
	TotalItems       int
	TXTFile          string
	JSONFile         string
	VerificationFile string
}

// pageDiagnostic is the per-page block in the JSON artifact. Text never
// leaves the process; only its length is recorded.
type pageDiagnostic struct {
	Page       int     `json:"page"`
	OCRUsed    bool    `json:"ocr_used"`
	Confidence float64 `json:"confidence"`
	TextLength int     `json:"text_length"`
}

type clippingMetadata struct {
	TotalPages      int    `json:"total_pages"`
	TotalItems      int    `json:"total_items"`
	ChunksProcessed int    `json:"chunks_processed"`
	Model           string `json:"model,omitempty"`
}

type clippingDocument struct {
	Date     time.Time        `json:"date"`
	Items    []clipping.Item  `json:"items"`
	Metadata clippingMetadata `json:"metadata"`
	Pages    []pageDiagnostic `json:"pages"`
}

// writeClippingFiles persists the clipping as clipagem-YYYYMMDD.txt (the
// human-readable edition) and clipagem-YYYYMMDD.json (items plus per-page
// diagnostics). Returns the two paths.
func writeClippingFiles(result *clipping.Result, pages []extract.Page, outputDir string, now time.Time) (string, string, error) {
	date := now.Format("20060102")
	rule := strings.Repeat("=", 60)

	txtPath := filepath.Join(outputDir, fmt.Sprintf("clipagem-%s.txt", date))
	txtContent := strings.Join([]string{
		rule,
		fmt.Sprintf("CLIPAGEM DO DIÁRIO - %s", now.Format("02/01/2006")),
		rule,
		"",
		result.SummaryText,
		"",
		rule,
		"Gerado automaticamente pelo Jornal-Agent",
		fmt.Sprintf("Total de itens: %d", len(result.Items)),
		rule,
	}, "\n")
	if err := os.WriteFile(txtPath, []byte(txtContent), 0o644); err != nil {
		return "", "", fmt.Errorf("write clipping txt: %w", err)
	}

	doc := clippingDocument{
		Date:  now,
		Items: result.Items,
		Metadata: clippingMetadata{
			TotalPages:      len(pages),
			TotalItems:      len(result.Items),
			ChunksProcessed: result.Chunks,
			Model:           result.Model,
		},
		Pages: make([]pageDiagnostic, 0, len(pages)),
	}
	for _, p := range pages {
		doc.Pages = append(doc.Pages, pageDiagnostic{
			Page:       p.Number,
			OCRUsed:    p.OCRUsed,
			Confidence: p.Confidence,
			TextLength: len([]rune(p.Text)),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal clipping json: %w", err)
	}
	jsonPath := filepath.Join(outputDir, fmt.Sprintf("clipagem-%s.json", date))
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write clipping json: %w", err)
	}

	return txtPath, jsonPath, nil
}
