package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteVerificationReport emits the per-page diagnostic report. It is not
// required for downstream correctness but must exist on every run so the
// extraction quality can be audited later.
func WriteVerificationReport(pages []Page, outputDir string, now time.Time) (string, error) {
	path := filepath.Join(outputDir, fmt.Sprintf("verification-%s.txt", now.Format("20060102")))

	var b strings.Builder
	rule := strings.Repeat("=", 60)
	b.WriteString(rule + "\n")
	b.WriteString("RELATÓRIO DE VERIFICAÇÃO - EXTRAÇÃO DE TEXTO\n")
	b.WriteString("Data: " + now.Format("2006-01-02 15:04:05") + "\n")
	b.WriteString(rule + "\n\n")

	for _, p := range pages {
		b.WriteString(fmt.Sprintf("PÁGINA %d\n", p.Number))
		b.WriteString(strings.Repeat("-", 40) + "\n")
		ocr := "Não"
		if p.OCRUsed {
			ocr = "Sim"
		}
		b.WriteString(fmt.Sprintf("  OCR usado: %s\n", ocr))
		b.WriteString(fmt.Sprintf("  Confiança: %.2f\n", p.Confidence))
		b.WriteString(fmt.Sprintf("  Tamanho: %d caracteres\n", len([]rune(p.Text))))
		b.WriteString("  Preview: " + preview(p.Text, 200) + "\n\n")
	}

	b.WriteString(rule + "\n")
	b.WriteString("ESTATÍSTICAS\n")
	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("Total de páginas: %d\n", len(pages)))
	if len(pages) > 0 {
		ocrCount := 0
		sum := 0.0
		for _, p := range pages {
			if p.OCRUsed {
				ocrCount++
			}
			sum += p.Confidence
		}
		b.WriteString(fmt.Sprintf("Páginas com OCR: %d (%.1f%%)\n",
			ocrCount, 100*float64(ocrCount)/float64(len(pages))))
		b.WriteString(fmt.Sprintf("Confiança média: %.2f\n", sum/float64(len(pages))))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write verification report: %w", err)
	}
	return path, nil
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
