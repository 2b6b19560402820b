package extract

import (
	"fmt"
	"slices"

	"github.com/otiai10/gosseract/v2"
)

// OCR recognizes text in a rendered page image (PNG bytes).
type OCR interface {
	Recognize(png []byte) (string, error)
	Close() error
}

// Tesseract is the production OCR backend, configured for the Portuguese
// language pack the edition is printed in.
type Tesseract struct {
	client *gosseract.Client
}

// NewTesseract verifies the backend and language pack are available before
// returning a client. Unavailability is an OCRError, fatal to the run.
func NewTesseract(lang string) (*Tesseract, error) {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, &OCRError{Err: fmt.Errorf("tesseract not installed: %w", err)}
	}
	if !slices.Contains(langs, lang) {
		return nil, &OCRError{Err: fmt.Errorf("language pack %q not installed (have %v)", lang, langs)}
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, &OCRError{Err: fmt.Errorf("set language %q: %w", lang, err)}
	}
	// PSM 1: automatic page segmentation with orientation detection,
	// suited to multi-column newspaper layouts.
	if err := client.SetPageSegMode(gosseract.PSM_AUTO_OSD); err != nil {
		client.Close()
		return nil, &OCRError{Err: fmt.Errorf("set page segmentation mode: %w", err)}
	}

	return &Tesseract{client: client}, nil
}

func (t *Tesseract) Recognize(png []byte) (string, error) {
	if err := t.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}
	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}

func (t *Tesseract) Close() error {
	return t.client.Close()
}
