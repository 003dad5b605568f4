// Package obfuscate scrambles strings before they are written to disk.
//
// The transform is a byte-wise XOR against a fixed repeating key followed by
// standard base64 encoding. It only keeps endpoints from showing up as plain
// text in the store; the key ships with the binary, so it offers no
// confidentiality.
package obfuscate

import (
	"encoding/base64"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

const defaultKey = "flowgate/endpoint-scrambler/v1#K"

var (
	// ErrEmptyInput is returned when Transform is asked to scramble an empty string.
	ErrEmptyInput = eris.New("obfuscate: empty input")
	// ErrDecodeFailure is returned when a stored value cannot be restored.
	ErrDecodeFailure = eris.New("obfuscate: decode failure")
)

// Codec applies the reversible transform with a given key.
type Codec struct {
	key []byte
}

// Default is the codec used for persisted endpoints.
var Default = New(defaultKey)

// New returns a codec for key. An empty key falls back to the default key.
func New(key string) *Codec {
	if key == "" {
		key = defaultKey
	}
	return &Codec{key: []byte(key)}
}

// Transform scrambles plain and returns its base64 text form.
func (c *Codec) Transform(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyInput
	}
	return base64.StdEncoding.EncodeToString(c.xor([]byte(plain))), nil
}

// Restore reverses Transform.
func (c *Codec) Restore(cipher string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(cipher)
	if err != nil {
		return "", eris.Wrap(ErrDecodeFailure, err.Error())
	}
	out := c.xor(raw)
	if !utf8.Valid(out) {
		return "", eris.Wrap(ErrDecodeFailure, "restored bytes are not utf-8")
	}
	return string(out), nil
}

func (c *Codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}
