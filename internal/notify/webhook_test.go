package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNA-Coded/RakshaMarg/internal/notify"
)

func TestWebhookChannel_Send(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	channel := notify.NewWebhookChannel(notify.WebhookConfig{
		URL:        server.URL,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})

	err := channel.Send(context.Background(), notify.Recipient{Name: "emergency services"}, "SOS at 28.6,77.2")
	require.NoError(t, err)
	assert.Equal(t, "SOS at 28.6,77.2", got["message"])
}

func TestWebhookChannel_Send_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	channel := notify.NewWebhookChannel(notify.WebhookConfig{
		URL:        server.URL,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})

	err := channel.Send(context.Background(), notify.Recipient{}, "SOS")
	require.ErrorIs(t, err, notify.ErrDeliveryFailed)
}
