package order

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/go-playground/validator/v10"
)

// RawLine is a cart line as submitted by a client. Only Normalize reads it.
type RawLine map[string]any

// CartLine is a normalized cart line.
type CartLine struct {
	ProductID string
	Quantity  int
}

// Synonyms are tried in order; the first usable field wins.
var (
	productRefFields = []string{"productId", "productRef", "id", "_id"}
	quantityFields   = []string{"quantity", "qty", "q"}
)

const maxLineQuantity = 1_000_000

var validate = validator.New()

// Normalize turns a raw submission into typed cart lines and a buyer. It is
// pure: it never reaches a store.
func Normalize(items []RawLine, caller Principal, guestEmail string) ([]CartLine, domain.Buyer, error) {
	if len(items) == 0 {
		return nil, domain.Buyer{}, newValidation(CodeEmptyCart)
	}

	buyer, ok := resolveBuyer(caller, guestEmail)
	if !ok {
		return nil, domain.Buyer{}, newValidation(CodeMissingIdentity)
	}

	lines := make([]CartLine, 0, len(items))
	for _, raw := range items {
		ref := productRef(raw)
		if ref == "" {
			return nil, domain.Buyer{}, newValidation(CodeMissingProductRef)
		}
		lines = append(lines, CartLine{ProductID: ref, Quantity: quantity(raw)})
	}
	return lines, buyer, nil
}

// A signed-in caller wins over a guest email sent alongside it.
func resolveBuyer(caller Principal, guestEmail string) (domain.Buyer, bool) {
	if !caller.Anonymous() {
		return domain.Buyer{CustomerID: caller.CustomerID}, true
	}
	email := strings.TrimSpace(guestEmail)
	if email == "" || validate.Var(email, "email") != nil {
		return domain.Buyer{}, false
	}
	return domain.Buyer{GuestEmail: email}, true
}

func productRef(raw RawLine) string {
	for _, key := range productRefFields {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case json.Number:
			if f, err := t.Float64(); err == nil && isFinite(f) {
				return numericRef(f)
			}
		case float64:
			if isFinite(t) {
				return numericRef(t)
			}
		case int:
			return strconv.Itoa(t)
		case int64:
			return strconv.FormatInt(t, 10)
		}
	}
	return ""
}

// numericRef spells a numeric id in plain decimal so distinct numbers never
// share a reference.
func numericRef(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func quantity(raw RawLine) int {
	for _, key := range quantityFields {
		f, ok := number(raw[key])
		if !ok {
			continue
		}
		f = math.Floor(f)
		switch {
		case f < 1:
			return 1
		case f > maxLineQuantity:
			return maxLineQuantity
		default:
			return int(f)
		}
	}
	return 1
}

func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	return f, isFinite(f)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
