package shopifywebhook

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderPayload_Decode(t *testing.T) {
	body := `{
		"id": 820982911946154500,
		"name": "#1001",
		"order_number": 1001,
		"email": "jon@example.com",
		"currency": "USD",
		"customer": {"first_name": "Jon", "last_name": "Snow", "email": "jon@example.com"},
		"line_items": [{
			"id": 466157049,
			"product_id": 7513594,
			"variant_id": 39072856,
			"title": "Le Creuset Dutch Oven",
			"quantity": 1,
			"price": "199.00",
			"properties": [{"name": "_registry_item_id", "value": "7f9c24e8-3b3a-4fb8-9e0a-2e5f1f5f6a10"}]
		}]
	}`

	var payload OrderPayload
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	require.NoError(t, payload.Validate())
	require.Len(t, payload.LineItems, 1)

	itemID, ok := payload.LineItems[0].RegistryItemID("_registry_item_id", false)
	require.True(t, ok)
	assert.Equal(t, "7f9c24e8-3b3a-4fb8-9e0a-2e5f1f5f6a10", itemID.String())

	price, err := payload.LineItems[0].UnitPrice()
	require.NoError(t, err)
	assert.Equal(t, "199", price.String())
}

func TestLineItem_RegistryItemIDLegacyScan(t *testing.T) {
	id := uuid.New()
	line := LineItemPayload{Properties: []LineItemProperty{
		{Name: "Registry Item", Value: id.String()},
	}}

	got, ok := line.RegistryItemID("_registry_item_id", true)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = line.RegistryItemID("_registry_item_id", false)
	assert.False(t, ok, "legacy scan disabled must not match loose keys")
}

func TestLineItem_RegistryItemIDIgnoresGarbage(t *testing.T) {
	line := LineItemPayload{Properties: []LineItemProperty{
		{Name: "_registry_item_id", Value: "not-a-uuid"},
		{Name: "registry note", Value: "for the wedding"},
	}}
	_, ok := line.RegistryItemID("_registry_item_id", true)
	assert.False(t, ok)
}

func TestLineItem_GiftMessage(t *testing.T) {
	line := LineItemPayload{Properties: []LineItemProperty{
		{Name: "_gift_message", Value: "Congrats you two!"},
	}}
	msg, ok := line.GiftMessage("_gift_message", false)
	require.True(t, ok)
	assert.Equal(t, "Congrats you two!", msg)

	legacy := LineItemPayload{Properties: []LineItemProperty{
		{Name: "Gift Message", Value: "From all of us"},
	}}
	msg, ok = legacy.GiftMessage("_gift_message", true)
	require.True(t, ok)
	assert.Equal(t, "From all of us", msg)

	_, ok = legacy.GiftMessage("_gift_message", false)
	assert.False(t, ok)
}

func TestLineItem_GiftMessageLegacySingleWord(t *testing.T) {
	cases := map[string]LineItemPayload{
		"message only": {Properties: []LineItemProperty{
			{Name: "message", Value: "Welcome to the world, little one"},
		}},
		"gift note": {Properties: []LineItemProperty{
			{Name: "Gift note", Value: "Welcome to the world, little one"},
		}},
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			msg, ok := line.GiftMessage("_gift_message", true)
			require.True(t, ok)
			assert.Equal(t, "Welcome to the world, little one", msg)
		})
	}

	unrelated := LineItemPayload{Properties: []LineItemProperty{
		{Name: "engraving", Value: "H+Q"},
	}}
	_, ok := unrelated.GiftMessage("_gift_message", true)
	assert.False(t, ok)
}

func TestOrderPayload_PurchaserName(t *testing.T) {
	full := &OrderPayload{Customer: &CustomerPayload{FirstName: "Jon", LastName: "Snow"}}
	require.NotNil(t, full.PurchaserName())
	assert.Equal(t, "Jon Snow", *full.PurchaserName())

	firstOnly := &OrderPayload{Customer: &CustomerPayload{FirstName: "Jon"}}
	require.NotNil(t, firstOnly.PurchaserName())
	assert.Equal(t, "Jon", *firstOnly.PurchaserName())

	assert.Nil(t, (&OrderPayload{}).PurchaserName())
}

func TestOrderPayload_PurchaserEmailFallback(t *testing.T) {
	order := &OrderPayload{Email: "order@example.com", Customer: &CustomerPayload{}}
	require.NotNil(t, order.PurchaserEmail())
	assert.Equal(t, "order@example.com", *order.PurchaserEmail())
}

func TestLineItem_UnitPriceErrors(t *testing.T) {
	_, err := LineItemPayload{Price: ""}.UnitPrice()
	assert.Error(t, err)

	_, err = LineItemPayload{Price: "free"}.UnitPrice()
	assert.Error(t, err)

	_, err = LineItemPayload{Price: "-1.00"}.UnitPrice()
	assert.Error(t, err)
}
