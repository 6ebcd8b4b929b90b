package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hatchery/internal/domain/models"
)

type stubMessaging struct {
	handleErr error
	sendErr   error
	payloads  []models.WebhookPayload
	sent      []models.OutboundMessageRequest
}

func (s *stubMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (s *stubMessaging) HandleWebhook(_ context.Context, payload models.WebhookPayload) error {
	s.payloads = append(s.payloads, payload)
	return s.handleErr
}

func (s *stubMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, req)
	return nil
}

type stubTrigger struct {
	err   error
	calls int
}

func (s *stubTrigger) SendDigest(context.Context, time.Time) error {
	s.calls++
	return s.err
}

func webhookEngine(h *WebhookHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	r.POST("/api/digest/send", h.SendDigest)
	return r
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestWebhookVerify(t *testing.T) {
	r := webhookEngine(NewWebhookHandler(&stubMessaging{}, nil, nil))

	rr := serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=42", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", rr.Body.String())

	rr = serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=42", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestWebhookReceive_AcknowledgesProcessingFailures(t *testing.T) {
	svc := &stubMessaging{handleErr: errors.New("send reply: timeout")}
	r := webhookEngine(NewWebhookHandler(svc, nil, nil))

	body := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messages":[{"from":"336","id":"wamid.1","type":"text","text":{"body":"status 3f2a"}}]}}]}]}`
	rr := serve(r, http.MethodPost, "/webhook", body)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, svc.payloads, 1)
	assert.Equal(t, "status 3f2a", svc.payloads[0].Entry[0].Changes[0].Value.Messages[0].Text.Body)

	rr = serve(r, http.MethodPost, "/webhook", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, svc.payloads, 1)
}

func TestSendMessage(t *testing.T) {
	svc := &stubMessaging{}
	r := webhookEngine(NewWebhookHandler(svc, nil, nil))

	rr := serve(r, http.MethodPost, "/send-message", `{"to":"336","message":"candling tonight"}`)
	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, []models.OutboundMessageRequest{{To: "336", Message: "candling tonight"}}, svc.sent)

	rr = serve(r, http.MethodPost, "/send-message", `{"to":"336"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	svc.sendErr = errors.New("whatsapp api error: code=131047")
	rr = serve(r, http.MethodPost, "/send-message", `{"to":"336","message":"x"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestSendDigest(t *testing.T) {
	r := webhookEngine(NewWebhookHandler(&stubMessaging{}, nil, nil))
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/api/digest/send", "").Code)

	trigger := &stubTrigger{}
	r = webhookEngine(NewWebhookHandler(&stubMessaging{}, trigger, nil))
	assert.Equal(t, http.StatusAccepted, serve(r, http.MethodPost, "/api/digest/send", "").Code)

	trigger.err = errors.New("no report recipient configured")
	assert.Equal(t, http.StatusBadGateway, serve(r, http.MethodPost, "/api/digest/send", "").Code)
	assert.Equal(t, 2, trigger.calls)
}
