package bean

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

// Token is the opaque version marker of a persisted record. Tokens are
// compared for equality only; the zero Token means "never persisted".
type Token string

func (t Token) IsZero() bool { return t == "" }

// ETag returns t as a quoted entity tag.
func (t Token) ETag() string {
	return `"` + string(t) + `"`
}

// ParseETag extracts the token from an ETag or If-Match value. Weak tags
// are accepted as is.
func ParseETag(v string) Token {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return Token(strings.Trim(v, `"`))
}

// encMode writes Core Deterministic CBOR so that equal records always
// produce identical bytes. Times keep their full precision.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	encMode, err = opts.EncMode()
	if err != nil {
		panic("bean: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("bean: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes a record's persisted state. The token itself is never
// part of the state.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes state produced by Marshal into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Clone returns a deep copy of b through its persisted state. The copy
// carries the token of b.
func Clone[B Bean](b B) (B, error) {
	var out B
	data, err := Marshal(b)
	if err != nil {
		return out, err
	}
	if err := Unmarshal(data, &out); err != nil {
		return out, err
	}
	out.Metadata().Token = b.Metadata().Token
	return out, nil
}

// ComputeToken derives the token of a record from its storage revision and
// its persisted state. Any change to a domain or metadata field, or a new
// revision of identical state, yields a different token.
func ComputeToken(revision int64, state any) (Token, error) {
	body, err := Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return TokenOf(revision, body)
}

// TokenOf derives a token from a revision and already encoded state.
func TokenOf(revision int64, body []byte) (Token, error) {
	rev, err := Marshal(revision)
	if err != nil {
		return "", fmt.Errorf("encode revision: %w", err)
	}

	h := blake3.New()
	_, _ = h.Write(rev)
	_, _ = h.Write(body)
	sum := h.Sum(nil)

	return Token(hex.EncodeToString(sum[:16])), nil
}
