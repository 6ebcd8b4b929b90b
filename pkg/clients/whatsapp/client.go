package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/hatchery/internal/config"
)

// MaxTextLength is the longest text body the Cloud API accepts in one message.
const MaxTextLength = 4096

// Client exposes WhatsApp Cloud API operations used by the application.
type Client interface {
	SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	http          *resty.Client
	phoneNumberID string
	maxText       int
}

// NewClient builds a client for the Graph API version in cfg. Requests that
// fail at the transport level or with a 5xx are retried twice.
func NewClient(cfg config.WhatsAppConfig) *APIClient {
	r := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/" + cfg.APIVersion).
		SetAuthToken(cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	return &APIClient{http: r, phoneNumberID: cfg.PhoneNumberID, maxText: MaxTextLength}
}

// SendTextMessageRequest is one outbound text. Bodies longer than
// MaxTextLength are sent as several messages split on line breaks.
type SendTextMessageRequest struct {
	To         string
	Body       string
	PreviewURL bool
}

// SendTextMessageResponse lists the message ids Meta assigned, one per part sent.
type SendTextMessageResponse struct {
	Messages []MessageRef `json:"messages"`
}

// MessageRef identifies an accepted message.
type MessageRef struct {
	ID string `json:"id"`
}

// APIError is an error payload returned by the Cloud API.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FBTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	code := e.Code
	if code == 0 {
		code = e.Status
	}
	return fmt.Sprintf("whatsapp api error: code=%d, message=%s", code, e.Message)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url"`
}

// SendTextMessage posts req.Body, split into parts when needed. It stops at
// the first failed part and returns the ids accepted so far with the error.
func (c *APIClient) SendTextMessage(ctx context.Context, req SendTextMessageRequest) (*SendTextMessageResponse, error) {
	out := &SendTextMessageResponse{}
	for _, part := range SplitText(req.Body, c.maxText) {
		ref, err := c.sendPart(ctx, req.To, part, req.PreviewURL)
		if err != nil {
			return out, err
		}
		out.Messages = append(out.Messages, ref...)
	}
	return out, nil
}

func (c *APIClient) sendPart(ctx context.Context, to, body string, preview bool) ([]MessageRef, error) {
	result := &SendTextMessageResponse{}
	envelope := &errorEnvelope{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(textPayload{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "text",
			Text:             textBody{Body: body, PreviewURL: preview},
		}).
		SetResult(result).
		SetError(envelope).
		Post(c.phoneNumberID + "/messages")
	if err != nil {
		return nil, fmt.Errorf("send whatsapp message: %w", err)
	}
	if resp.IsError() {
		apiErr := envelope.Error
		apiErr.Status = resp.StatusCode()
		return nil, &apiErr
	}
	return result.Messages, nil
}

// SplitText cuts text into parts of at most limit bytes, preferring line
// breaks. A single line longer than limit is cut on a rune boundary.
func SplitText(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if current.Len()+len(line) > limit {
			flush()
		}
		for len(line) > limit {
			cut := runeCut(line, limit)
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		current.WriteString(line)
	}
	flush()

	for i := range parts {
		parts[i] = strings.TrimRight(parts[i], "\n")
	}
	return parts
}

// runeCut returns the largest index <= limit that does not split a UTF-8 sequence.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}
