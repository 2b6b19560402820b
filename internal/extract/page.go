// Package extract turns the downloaded edition PDF into per-page text.
// Native text extraction is tried first; pages that yield too little text
// are rendered to a raster image and recovered through OCR. Every page gets
// a heuristic confidence score.
package extract

import "fmt"

// Page is one page of the edition after extraction. Page numbers are
// 1-based; the front page is skipped by convention and never appears here.
type Page struct {
	Number     int     `json:"page"`
	Text       string  `json:"-"`
	OCRUsed    bool    `json:"ocr_used"`
	Confidence float64 `json:"confidence"`
}

// OCRError means the OCR backend itself is unavailable. This is fatal to
// the run; a failure on an individual page is not.
type OCRError struct {
	Err error
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("ocr backend unavailable: %v", e.Err)
}

func (e *OCRError) Unwrap() error { return e.Err }
