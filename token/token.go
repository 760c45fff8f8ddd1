// Package token parses access tokens without verifying them.
//
// Nothing decoded here is trusted: the payload is only used to decide whether
// a token has expired and to display claims.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DemoPrefix marks tokens synthesized locally for the demo account.
const DemoPrefix = "demo_token_"

var ErrMalformed = errors.New("malformed token")

// NewDemo returns a demo token stamped with now in unix milliseconds.
func NewDemo(now time.Time) string {
	return DemoPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

func IsDemo(raw string) bool {
	return strings.HasPrefix(raw, DemoPrefix)
}

// Payload is the decoded middle segment of a JWT-shaped token.
type Payload struct {
	raw []byte
}

// Decode extracts the payload of a three-segment token. Padding on the
// payload segment is tolerated, and so is the standard base64 alphabet.
func Decode(raw string) (*Payload, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	segment := strings.TrimRight(parts[1], "=")
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		var stdErr error
		if data, stdErr = base64.RawStdEncoding.DecodeString(segment); stdErr != nil {
			return nil, fmt.Errorf("%w: payload encoding: %v", ErrMalformed, err)
		}
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformed)
	}

	return &Payload{raw: data}, nil
}

// Get returns the claim at a gjson path, e.g. "sub" or "user.role_id".
func (p *Payload) Get(path string) gjson.Result {
	return gjson.GetBytes(p.raw, path)
}

func (p *Payload) Raw() []byte {
	out := make([]byte, len(p.raw))
	copy(out, p.raw)
	return out
}

// expSeconds reads exp as a number of seconds. Numeric strings such as
// "1700000000" count as numbers.
func (p *Payload) expSeconds() (float64, bool) {
	exp := p.Get("exp")
	switch exp.Type {
	case gjson.Number:
		return exp.Float(), true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(exp.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ExpiresAt reports the exp claim. ok is false when exp is missing or not numeric.
func (p *Payload) ExpiresAt() (time.Time, bool) {
	exp, ok := p.expSeconds()
	if !ok {
		return time.Time{}, false
	}
	sec, frac := math.Modf(exp)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// Valid reports whether now is strictly before exp. Tokens without exp are
// never valid.
func (p *Payload) Valid(now time.Time) bool {
	exp, ok := p.expSeconds()
	if !ok {
		return false
	}
	return float64(now.UnixMilli()) < exp*1000
}
