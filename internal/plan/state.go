package plan

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/Simplici0/calcoz/internal/currency"
)

// State is the per-browser application state: the chosen plan and display
// currency. The cost engine never reads it.
type State struct {
	Plan     Plan   `json:"plan"`
	Currency string `json:"currency"`
}

// Chosen reports whether a plan has been picked.
func (s State) Chosen() bool { return s.Plan == Basic || s.Plan == Pro }

// CurrencyOrDefault resolves the display currency.
func (s State) CurrencyOrDefault(fallback string) currency.Currency {
	if c, ok := currency.Find(s.Currency); ok {
		return c
	}
	return currency.Lookup(fallback)
}

// Codec signs and verifies encoded State values with HMAC-SHA256.
type Codec struct {
	secret []byte
}

// NewCodec returns a codec keyed by secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode returns "payload.signature" for s.
func (c *Codec) Encode(s State) string {
	raw, _ := json.Marshal(s)
	payload := base64.RawURLEncoding.EncodeToString(raw)
	return payload + "." + c.sign(payload)
}

// Decode verifies value and returns the State it carries.
func (c *Codec) Decode(value string) (State, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok || payload == "" {
		return State{}, false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return State{}, false
	}
	expected, _ := hex.DecodeString(c.sign(payload))
	if !hmac.Equal(provided, expected) {
		return State{}, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return State{}, false
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, false
	}
	if s.Plan != None {
		if _, err := Parse(string(s.Plan)); err != nil {
			return State{}, false
		}
	}
	return s, true
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
