package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	apperrors "sjsage522/learningfield/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookURL = "https://discord.com/api/webhooks/123456/secret-token"

// redirect sends every request to the test server regardless of host
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	req.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestDiscord(t *testing.T, webhookURL string, handler http.HandlerFunc) *Discord {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	d := NewDiscord(webhookURL)
	d.session.Client = &http.Client{Transport: redirect{target: target}}
	return d
}

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL(testWebhookURL)
	require.NoError(t, err)
	assert.Equal(t, "123456", id)
	assert.Equal(t, "secret-token", token)

	_, _, err = parseWebhookURL("https://discord.com/api/webhooks/123456")
	assert.Error(t, err)
	_, _, err = parseWebhookURL("https://example.com/hooks")
	assert.Error(t, err)
}

func TestDiscordNotify(t *testing.T) {
	var got map[string]interface{}
	d := newTestDiscord(t, testWebhookURL, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Regexp(t, `^/api/v\d+/webhooks/123456/secret-token$`, r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","channel_id":"2","content":"ok"}`))
	})

	require.NoError(t, d.Notify(context.Background(), 3))
	assert.Equal(t, "🤖 **Daily Update**: `3` new learning resources have been added to the catalog!", got["content"])
}

func TestDiscordNotifySkips(t *testing.T) {
	calls := 0
	handler := func(w http.ResponseWriter, r *http.Request) { calls++ }

	assert.NoError(t, newTestDiscord(t, testWebhookURL, handler).Notify(context.Background(), 0))
	assert.NoError(t, newTestDiscord(t, "", handler).Notify(context.Background(), 5))
	assert.Equal(t, 0, calls)
}

func TestDiscordNotifyError(t *testing.T) {
	d := newTestDiscord(t, testWebhookURL, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":50006,"message":"Cannot send an empty message"}`))
	})

	err := d.Notify(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotification))
	assert.Contains(t, err.Error(), "400")
}

func TestDiscordNotifyInvalidURL(t *testing.T) {
	calls := 0
	d := newTestDiscord(t, "https://discord.com/api/channels/1", func(w http.ResponseWriter, r *http.Request) { calls++ })

	err := d.Notify(context.Background(), 2)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotification))
	assert.Equal(t, 0, calls)
}
