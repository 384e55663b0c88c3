package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	placed := NewOrderPlaced(uuid.NewString(), uuid.NewString(), 3)

	body, err := Encode(placed)
	require.NoError(t, err)

	env, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, KindOrderPlaced, env.Kind)

	var got OrderPlaced
	require.NoError(t, env.Bind(&got))
	assert.Equal(t, placed, got)
}

func TestDecodeRejectedPayload(t *testing.T) {
	rejected := NewInventoryRejected("order-1", "product-1", "insufficient stock")

	body, err := Encode(rejected)
	require.NoError(t, err)

	env, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, KindInventoryRejected, env.Kind)

	var got InventoryRejected
	require.NoError(t, env.Bind(&got))
	assert.Equal(t, "insufficient stock", got.Reason)
	assert.Equal(t, "order-1", got.OrderID)
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	body := []byte(`{"event":"Inventory Updated","orderId":"o1","productId":"p1","newInventory":4,"traceId":"abc","schemaVersion":2}`)

	env, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, KindInventoryUpdated, env.Kind)

	var got InventoryUpdated
	require.NoError(t, env.Bind(&got))
	assert.Equal(t, "o1", got.OrderID)
	assert.Equal(t, "p1", got.ProductID)
	assert.Equal(t, 4, got.NewInventory)
}

func TestDecodeUnknownKind(t *testing.T) {
	env, err := Decode([]byte(`{"event":"Order Refunded","orderId":"o1"}`))
	require.NoError(t, err)
	assert.Equal(t, Kind("Order Refunded"), env.Kind)
}

func TestDecodeMissingEventField(t *testing.T) {
	_, err := Decode([]byte(`{"orderId":"o1"}`))
	assert.Error(t, err)
}

func TestDecodeMalformedBody(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}
