package browser

import (
	"errors"
	"fmt"
)

// CaptchaRequiredError means an anti-bot wall was detected. Retrying cannot
// solve a CAPTCHA, so this error is never retried and terminates the run.
type CaptchaRequiredError struct {
	Indicator string
}

func (e *CaptchaRequiredError) Error() string {
	return fmt.Sprintf("captcha detected (%s), manual intervention required", e.Indicator)
}

// LoginError means the login sequence failed: no selector triple matched,
// the site showed an error message, or navigation timed out.
type LoginError struct {
	Reason string
	Err    error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("login failed: %s", e.Reason)
}

func (e *LoginError) Unwrap() error { return e.Err }

// DownloadError means a download was located but could not be completed.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed: %v", e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// PDFNotFoundError means no download control or PDF link was found after
// exhausting every selector and the page link scan.
type PDFNotFoundError struct {
	PageURL string
}

func (e *PDFNotFoundError) Error() string {
	return fmt.Sprintf("no PDF found for download at %s", e.PageURL)
}

// IsRetryable reports whether another attempt at the login+download
// sequence is worthwhile. CAPTCHA detection is explicitly excluded: it
// propagates on the first attempt.
func IsRetryable(err error) bool {
	var loginErr *LoginError
	var dlErr *DownloadError
	var notFound *PDFNotFoundError
	return errors.As(err, &loginErr) || errors.As(err, &dlErr) || errors.As(err, &notFound)
}
