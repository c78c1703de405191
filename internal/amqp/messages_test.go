package amqp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeFromJSONRejectsIncomplete(t *testing.T) {
	_, err := ChangeFromJSON([]byte(`{"user":"u1"}`))
	assert.Error(t, err)

	_, err = ChangeFromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestChangeJSON(t *testing.T) {
	body, err := NewChange("u1", "transactions").ToJSON()
	require.NoError(t, err)

	got, err := ChangeFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.User)
	assert.Equal(t, "transactions", got.Stream)
	assert.False(t, got.At.IsZero())
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "changes.sari", RoutingKey("changes", "sari"))
}
