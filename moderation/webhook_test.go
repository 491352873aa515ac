package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sm64js/realtime-server/gameserver"
)

func TestSendPostsEmbedWithOneFieldPerRoom(t *testing.T) {
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, time.Second)
	err := wh.Send(context.Background(), []gameserver.PlayerListField{
		{RoomName: "Bob-omb Battlefield", Count: 2, Value: "[Mario](x/api/account?account_id=1)\n[Luigi](x/api/account?account_id=2)"},
	})
	require.NoError(t, err)
	require.Len(t, received.Embeds, 1)
	require.Len(t, received.Embeds[0].Fields, 1)
	assert.Contains(t, received.Embeds[0].Fields[0].Name, "Bob-omb Battlefield")
	assert.Contains(t, received.Embeds[0].Fields[0].Value, "Mario")
}

func TestSendWithEmptyURLIsNoop(t *testing.T) {
	wh := NewWebhook("", time.Second)
	err := wh.Send(context.Background(), []gameserver.PlayerListField{{RoomName: "x", Count: 1, Value: "y"}})
	assert.NoError(t, err)
}

func TestSendSwallowsDeliveryFailure(t *testing.T) {
	wh := NewWebhook("http://127.0.0.1:0", 50*time.Millisecond)
	err := wh.Send(context.Background(), []gameserver.PlayerListField{{RoomName: "x", Count: 1, Value: "y"}})
	assert.NoError(t, err, "delivery failures are logged and dropped, never propagated")
}
