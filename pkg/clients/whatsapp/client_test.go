package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hatchery/internal/config"
)

func TestSendTextMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/123/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{BaseURL: srv.URL + "/", APIVersion: "v20.0", AccessToken: "tok", PhoneNumberID: "123"})
	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "336", Body: "day 9 recorded"})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "wamid.1", resp.Messages[0].ID)
	assert.Equal(t, "336", got["to"])
	assert.Equal(t, "day 9 recorded", got["text"].(map[string]any)["body"])
}

func TestSendTextMessage_APIError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid recipient","code":131030}}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{BaseURL: srv.URL, APIVersion: "v20.0", AccessToken: "tok", PhoneNumberID: "123"})
	_, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 131030, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, err.Error(), "code=131030")
	assert.Contains(t, err.Error(), "Invalid recipient")
	assert.Equal(t, int32(1), calls.Load(), "client errors are not retried")
}

func TestSendTextMessage_SplitsLongBodies(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got textPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		bodies = append(bodies, got.Text.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"messages":[{"id":"wamid.%d"}]}`, len(bodies))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{BaseURL: srv.URL, APIVersion: "v20.0", AccessToken: "tok", PhoneNumberID: "123"})
	c.maxText = 20

	resp, err := c.SendTextMessage(context.Background(), SendTextMessageRequest{
		To:   "336",
		Body: "- Hen [abcd1234]\n- Duck [ef567890]\n- Quail [aa11bb22]",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"- Hen [abcd1234]", "- Duck [ef567890]", "- Quail [aa11bb22]"}, bodies)
	assert.Equal(t, []MessageRef{{ID: "wamid.1"}, {ID: "wamid.2"}, {ID: "wamid.3"}}, resp.Messages)
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitText("short", 10))
	assert.Equal(t, []string{"ab\ncd", "ef"}, SplitText("ab\ncd\nef", 6))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, SplitText("abcdefghij", 4))

	parts := SplitText(strings.Repeat("é", 5), 3)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 3)
		assert.True(t, utf8.ValidString(p), p)
	}
	assert.Equal(t, strings.Repeat("é", 5), strings.Join(parts, ""))
}
