package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lfpaiva/jornal-agent/internal/config"
	"github.com/lfpaiva/jornal-agent/internal/retry"
)

// defaultAPIBase is the WhatsApp Cloud API root.
const defaultAPIBase = "https://graph.facebook.com/v18.0"

// maxMessageChars is the channel's text message budget; longer clippings
// are truncated with an ellipsis.
const maxMessageChars = 4000

// maxCaptionChars bounds the document caption.
const maxCaptionChars = 1024

// WhatsAppClient sends the edition PDF and clipping through the WhatsApp
// Cloud API: upload media, send a document message, send a text message.
// Each call is retried only on a rate-limit response; everything else
// fails fast so the email fallback can take over.
type WhatsAppClient struct {
	baseURL    string
	token      string
	phoneID    string
	httpClient *http.Client
	log        *slog.Logger
	policy     retry.Policy
	pause      time.Duration
}

func NewWhatsAppClient(cfg *config.RunConfig, log *slog.Logger) *WhatsAppClient {
	return &WhatsAppClient{
		baseURL: defaultAPIBase,
		token:   cfg.WhatsAppToken,
		phoneID: cfg.WhatsAppPhoneID,
		httpClient: &http.Client{
			// Media uploads can be slow on large editions.
			Timeout: 120 * time.Second,
		},
		log:    log,
		policy: retry.Default(isRateLimit),
		pause:  time.Second,
	}
}

// Receipt aggregates the identifiers produced by a successful send.
type Receipt struct {
	MediaID           string
	DocumentMessageID string
	TextMessageID     string
}

// SendMedia runs the full primary delivery: upload the PDF, send it as a
// document with a caption, then send the clipping as a text message.
func (c *WhatsAppClient) SendMedia(ctx context.Context, to, pdfPath, message string) (*Receipt, error) {
	receipt := &Receipt{}

	err := c.policy.Do(ctx, c.log, "upload media", func() error {
		id, err := c.uploadMedia(ctx, pdfPath)
		if err != nil {
			return err
		}
		receipt.MediaID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	caption := fmt.Sprintf("📰 Edição de %s", time.Now().Format("02/01/2006"))
	err = c.policy.Do(ctx, c.log, "send document", func() error {
		id, err := c.sendDocument(ctx, to, receipt.MediaID, caption, filepath.Base(pdfPath))
		if err != nil {
			return err
		}
		receipt.DocumentMessageID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Brief pause between the document and the text message, as the
	// channel throttles rapid consecutive sends.
	select {
	case <-time.After(c.pause):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	err = c.policy.Do(ctx, c.log, "send text", func() error {
		id, err := c.sendText(ctx, to, message)
		if err != nil {
			return err
		}
		receipt.TextMessageID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// uploadMedia posts the PDF to the media endpoint and returns the opaque
// media handle.
func (c *WhatsAppClient) uploadMedia(ctx context.Context, pdfPath string) (string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return "", &APIError{Err: fmt.Errorf("open pdf: %w", err)}
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return "", &APIError{Err: fmt.Errorf("build form: %w", err)}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &APIError{Err: fmt.Errorf("read pdf: %w", err)}
	}
	w.WriteField("messaging_product", "whatsapp")
	w.WriteField("type", "application/pdf")
	if err := w.Close(); err != nil {
		return "", &APIError{Err: fmt.Errorf("finish form: %w", err)}
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", &APIError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	c.log.Info("uploading media", "file", filepath.Base(pdfPath))

	data, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &APIError{Err: fmt.Errorf("decode upload response: %w", err)}
	}
	if result.ID == "" {
		return "", &APIError{Err: fmt.Errorf("no media id in response")}
	}

	c.log.Info("media uploaded", "media_id", result.ID)
	return result.ID, nil
}

func (c *WhatsAppClient) sendDocument(ctx context.Context, to, mediaID, caption, filename string) (string, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "document",
		"document": map[string]any{
			"id":       mediaID,
			"caption":  truncate(caption, maxCaptionChars),
			"filename": filename,
		},
	}
	c.log.Info("sending document message", "to", maskPhone(to))
	return c.sendMessage(ctx, payload)
}

func (c *WhatsAppClient) sendText(ctx context.Context, to, text string) (string, error) {
	if runes := []rune(text); len(runes) > maxMessageChars {
		text = string(runes[:maxMessageChars-3]) + "..."
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text": map[string]any{
			"preview_url": false,
			"body":        text,
		},
	}
	c.log.Info("sending text message", "to", maskPhone(to), "chars", len(text))
	return c.sendMessage(ctx, payload)
}

// sendMessage posts one message payload and returns the message id.
func (c *WhatsAppClient) sendMessage(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", &APIError{Err: fmt.Errorf("marshal payload: %w", err)}
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &APIError{Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return "", err
	}

	var result struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", &APIError{Err: fmt.Errorf("decode message response: %w", err)}
	}
	if len(result.Messages) == 0 {
		return "", &APIError{Err: fmt.Errorf("no message id in response")}
	}
	return result.Messages[0].ID, nil
}

// do executes a request and classifies the response: 429 is retryable,
// 401 is an auth failure, any other non-2xx is a generic API error.
func (c *WhatsAppClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("chat api request: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{Err: fmt.Errorf("HTTP 429")}
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthError{Err: fmt.Errorf("token rejected")}
	case resp.StatusCode >= 400:
		var apiResp struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &apiResp); err == nil && apiResp.Error.Message != "" {
			return nil, &APIError{Code: apiResp.Error.Code, Message: apiResp.Error.Message}
		}
		return nil, &APIError{Code: resp.StatusCode, Message: string(data)}
	}

	return data, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// maskPhone hides most of a recipient number in logs.
func maskPhone(phone string) string {
	if len(phone) <= 5 {
		return phone
	}
	return phone[:5] + "***"
}
