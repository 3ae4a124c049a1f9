package order

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Rejections(t *testing.T) {
	customer := Principal{CustomerID: "c-1"}

	tests := []struct {
		name   string
		items  []RawLine
		caller Principal
		guest  string
		code   string
	}{
		{"nil items", nil, customer, "", CodeEmptyCart},
		{"empty items", []RawLine{}, customer, "", CodeEmptyCart},
		{"anonymous without email", []RawLine{{"productId": "p1"}}, Principal{}, "", CodeMissingIdentity},
		{"anonymous with implausible email", []RawLine{{"productId": "p1"}}, Principal{}, "not-an-email", CodeMissingIdentity},
		{"line without reference", []RawLine{{"productId": "p1"}, {"quantity": 2}}, customer, "", CodeMissingProductRef},
		{"blank reference", []RawLine{{"productId": "   "}}, customer, "", CodeMissingProductRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.items, tt.caller, tt.guest)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation))
			assert.True(t, HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestNormalize_EmptyCartBeatsMissingIdentity(t *testing.T) {
	_, _, err := Normalize(nil, Principal{}, "")
	assert.True(t, HasCode(err, CodeEmptyCart))
}

func TestNormalize_Buyer(t *testing.T) {
	items := []RawLine{{"productId": "p1"}}

	_, buyer, err := Normalize(items, Principal{CustomerID: "c-1"}, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, "c-1", buyer.CustomerID)
	assert.Empty(t, buyer.GuestEmail)

	_, buyer, err = Normalize(items, Principal{}, "  guest@example.com ")
	require.NoError(t, err)
	assert.Empty(t, buyer.CustomerID)
	assert.Equal(t, "guest@example.com", buyer.GuestEmail)
}

func TestNormalize_Quantity(t *testing.T) {
	tests := []struct {
		name string
		raw  RawLine
		want int
	}{
		{"missing defaults to one", RawLine{"productId": "p"}, 1},
		{"quantity", RawLine{"productId": "p", "quantity": 3.0}, 3},
		{"qty", RawLine{"productId": "p", "qty": 4}, 4},
		{"q", RawLine{"productId": "p", "q": json.Number("5")}, 5},
		{"quantity wins over qty", RawLine{"productId": "p", "quantity": 2.0, "qty": 9.0}, 2},
		{"unusable quantity falls through to qty", RawLine{"productId": "p", "quantity": "lots", "qty": 6.0}, 6},
		{"numeric string", RawLine{"productId": "p", "quantity": " 7 "}, 7},
		{"fraction floors", RawLine{"productId": "p", "quantity": 2.9}, 2},
		{"fraction below one clamps", RawLine{"productId": "p", "quantity": 0.4}, 1},
		{"zero clamps", RawLine{"productId": "p", "quantity": 0.0}, 1},
		{"negative clamps", RawLine{"productId": "p", "quantity": -3.0}, 1},
		{"null is skipped", RawLine{"productId": "p", "quantity": nil, "q": 2.0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, _, err := Normalize([]RawLine{tt.raw}, Principal{CustomerID: "c"}, "")
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.want, lines[0].Quantity)
		})
	}
}

func TestNormalize_HugeNumericRefsStayDistinct(t *testing.T) {
	lines, _, err := Normalize([]RawLine{{"id": 1e19}, {"id": 2e19}}, Principal{CustomerID: "c"}, "")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.NotEqual(t, lines[0].ProductID, lines[1].ProductID)
}

func TestNormalize_ProductRefSynonyms(t *testing.T) {
	tests := []struct {
		raw  RawLine
		want string
	}{
		{RawLine{"productId": "a", "id": "b"}, "a"},
		{RawLine{"id": " b "}, "b"},
		{RawLine{"_id": "c"}, "c"},
		{RawLine{"productRef": "d", "_id": "c"}, "d"},
		{RawLine{"id": 42.0}, "42"},
		{RawLine{"id": json.Number("17")}, "17"},
		{RawLine{"id": 12.5}, "12.5"},
		{RawLine{"id": 1e20}, "100000000000000000000"},
		{RawLine{"id": json.Number("1e19")}, "10000000000000000000"},
		{RawLine{"productId": "", "id": "e"}, "e"},
	}
	for _, tt := range tests {
		lines, _, err := Normalize([]RawLine{tt.raw}, Principal{CustomerID: "c"}, "")
		require.NoError(t, err)
		assert.Equal(t, tt.want, lines[0].ProductID)
	}
}
