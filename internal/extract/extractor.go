package extract

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"strings"

	"github.com/gen2brain/go-fitz"
	pdflib "github.com/ledongthuc/pdf"

	"github.com/lfpaiva/jornal-agent/internal/config"
)

const (
	// Pages whose native text is shorter than this are considered
	// image-only and routed through OCR.
	minNativeChars = 50

	// Rendering resolution for OCR input.
	renderDPI = 300

	ocrLanguage = "por"
)

// Extractor produces the per-page contents of an edition PDF. The front
// page (page 1) is always excluded from the result.
type Extractor interface {
	ExtractPages(ctx context.Context, pdfPath string) ([]Page, error)
}

// New returns the extractor implementation for the run mode.
func New(cfg *config.RunConfig, log *slog.Logger) Extractor {
	if cfg.Simulate {
		return &simulated{log: log}
	}
	return &PDFExtractor{
		log:    log,
		newOCR: func() (OCR, error) { return NewTesseract(ocrLanguage) },
	}
}

// PDFExtractor is the real implementation: native text first, OCR recovery
// for image-only pages.
type PDFExtractor struct {
	log *slog.Logger

	// newOCR creates the OCR backend on first use, so text-complete
	// editions never touch tesseract. Swappable in tests.
	newOCR func() (OCR, error)
}

// pageSource abstracts one open edition: the embedded text layer and a
// rasterizer producing OCR input.
type pageSource interface {
	Count() int
	NativeText(num int) string
	Render(num int) ([]byte, error)
}

func (e *PDFExtractor) ExtractPages(ctx context.Context, pdfPath string) ([]Page, error) {
	f, reader, err := pdflib.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", pdfPath, err)
	}
	defer f.Close()

	src := &pdfSource{reader: reader, path: pdfPath, log: e.log}
	defer src.Close()

	return e.extract(ctx, src)
}

// extract walks the edition from page 2 on, routing each page to the
// native text layer or to OCR. An unavailable OCR backend is fatal; a
// failure on an individual page only degrades that page.
func (e *PDFExtractor) extract(ctx context.Context, src pageSource) ([]Page, error) {
	total := src.Count()
	e.log.Info("edition opened", "pages", total)
	if total < 2 {
		return nil, fmt.Errorf("edition has %d page(s), nothing beyond the front page", total)
	}

	var ocr OCR
	defer func() {
		if ocr != nil {
			ocr.Close()
		}
	}()

	var pages []Page
	// Page 1 is the front-page summary; it is never a source.
	for num := 2; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := src.NativeText(num)
		ocrUsed := len(strings.TrimSpace(text)) < minNativeChars

		if ocrUsed {
			if ocr == nil {
				var err error
				if ocr, err = e.newOCR(); err != nil {
					return nil, err
				}
			}
			text = e.recoverPage(src, ocr, num)
		}

		text = strings.TrimSpace(text)
		page := Page{
			Number:     num,
			Text:       text,
			OCRUsed:    ocrUsed,
			Confidence: Confidence(text, ocrUsed),
		}
		pages = append(pages, page)
		e.log.Debug("page extracted",
			"page", num, "chars", len(text), "ocr", ocrUsed, "confidence", page.Confidence)
	}

	e.log.Info("extraction finished", "pages", len(pages))
	return pages, nil
}

// recoverPage renders one page and runs it through OCR. Failure here is
// non-fatal: the page degrades to empty text and zero confidence.
func (e *PDFExtractor) recoverPage(src pageSource, ocr OCR, num int) string {
	e.log.Info("applying ocr", "page", num)

	data, err := src.Render(num)
	if err != nil {
		e.log.Warn("ocr failed for page", "page", num, "error", err)
		return ""
	}
	text, err := ocr.Recognize(data)
	if err != nil {
		e.log.Warn("ocr failed for page", "page", num, "error", err)
		return ""
	}
	return text
}

// pdfSource reads a real edition: embedded text via ledongthuc/pdf, raster
// pages via go-fitz. The renderer is opened on first use so text-complete
// editions never pay for it.
type pdfSource struct {
	reader   *pdflib.Reader
	path     string
	log      *slog.Logger
	renderer *fitz.Document
}

func (s *pdfSource) Count() int { return s.reader.NumPage() }

// NativeText pulls the embedded text layer of one page; an empty string
// routes the page to OCR.
func (s *pdfSource) NativeText(num int) string {
	page := s.reader.Page(num)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		s.log.Debug("native extraction failed", "page", num, "error", err)
		return ""
	}
	return text
}

// Render rasterizes one page at OCR resolution as PNG bytes. go-fitz
// counts pages from zero.
func (s *pdfSource) Render(num int) ([]byte, error) {
	if s.renderer == nil {
		r, err := fitz.New(s.path)
		if err != nil {
			return nil, fmt.Errorf("open pdf for rendering: %w", err)
		}
		s.renderer = r
	}
	img, err := s.renderer.ImageDPI(num-1, renderDPI)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", num, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", num, err)
	}
	return buf.Bytes(), nil
}

func (s *pdfSource) Close() {
	if s.renderer != nil {
		s.renderer.Close()
	}
}

// simulated returns a small fixed extraction so the pipeline can run
// end-to-end without a real edition.
type simulated struct {
	log *slog.Logger
}

func (s *simulated) ExtractPages(context.Context, string) ([]Page, error) {
	s.log.Warn("simulation mode: returning synthetic pages")
	return []Page{
		{Number: 2, Text: "Notícia de economia simulada", OCRUsed: false, Confidence: 0.95},
		{Number: 3, Text: "Notícia de política simulada", OCRUsed: false, Confidence: 0.90},
	}, nil
}
