package store

import "encoding/base64"

// SecretCoder reversibly transforms a secret before it is persisted.
// Implementations must satisfy the round-trip law Decode(Encode(x)) == x for
// all valid inputs, and Decode must report failure on malformed input instead
// of returning garbage.
type SecretCoder interface {
	Encode(plain string) string
	// Decode reverses Encode. The second return value is false when the
	// encoded input is malformed.
	Decode(encoded string) (string, bool)
}

// Base64Coder is the default [SecretCoder]. Standard base64 obscures the
// secret at rest but is NOT encryption; supply your own coder if the
// deployment needs confidentiality.
type Base64Coder struct{}

func (Base64Coder) Encode(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

func (Base64Coder) Decode(encoded string) (string, bool) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(data), true
}
