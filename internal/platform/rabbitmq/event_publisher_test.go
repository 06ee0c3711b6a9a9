package rabbitmq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"account-service/internal/model"
)

func TestEncodeDecodeEvent(t *testing.T) {
	at := time.Date(2026, 7, 1, 8, 30, 0, 0, time.UTC)
	event := model.AuthEvent{UserID: 12, Kind: model.AuthEventLoggedIn, OccurredAt: at}

	msg, err := EncodeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "logged_in", msg.Type)

	got, err := DecodeEvent(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, event.UserID, got.UserID)
	assert.Equal(t, event.Kind, got.Kind)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestDecodeEvent_Rejects(t *testing.T) {
	_, err := DecodeEvent([]byte("{"))
	assert.ErrorContains(t, err, "unmarshal auth event failed")

	_, err = DecodeEvent([]byte(`{"user_id":0,"kind":"registered"}`))
	assert.ErrorContains(t, err, "incomplete")

	_, err = DecodeEvent([]byte(`{"user_id":3}`))
	assert.ErrorContains(t, err, "incomplete")
}
