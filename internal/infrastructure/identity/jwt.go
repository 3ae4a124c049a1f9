package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	appOrder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
)

// JWTVerifier resolves HMAC-signed bearer tokens into a Principal.
type JWTVerifier struct {
	secret []byte
	log    observability.Logger
}

func NewJWTVerifier(secret string, log observability.Logger) *JWTVerifier {
	if log == nil {
		log = observability.NopLogger()
	}
	return &JWTVerifier{secret: []byte(secret), log: log}
}

// Resolve never fails: a token that is malformed, expired or signed with the
// wrong key yields the anonymous principal.
func (v *JWTVerifier) Resolve(ctx context.Context, credential string) appOrder.Principal {
	raw := strings.TrimSpace(credential)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return appOrder.Principal{}
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		logctx.FromOr(ctx, v.log).Debug("identity_token_rejected", observability.Err(err))
		return appOrder.Principal{}
	}

	return appOrder.Principal{
		CustomerID: firstString(claims, "sub", "user_id"),
		Role:       firstString(claims, "role"),
	}
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch val := claims[k].(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", val)
		}
	}
	return ""
}

// Sign issues a token for id and role. Used by the seed tooling and tests.
func Sign(secret, id, role string, claims jwt.MapClaims) (string, error) {
	c := jwt.MapClaims{"sub": id}
	if role != "" {
		c["role"] = role
	}
	for k, val := range claims {
		c[k] = val
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}
