package keys

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

const (
	PublicKeyLen  = 32
	PrivateKeyLen = 32
)

var ErrInvalidKey = errors.New("invalid key")

type NoCompare [0]func()

type PublicKey struct {
	k [PublicKeyLen]byte
}

type PrivateKey struct {
	_ NoCompare
	k [PrivateKeyLen]byte
}

// NewPrivateKey returns a clamped curve25519 private key read from crypto/rand.
// It panics if the system random source fails.
func NewPrivateKey() PrivateKey {
	k, err := newPrivateKey(rand.Reader)
	if err != nil {
		panic("error generating random bytes for private key: " + err.Error())
	}
	return k
}

func newPrivateKey(r io.Reader) (PrivateKey, error) {
	k := [PrivateKeyLen]byte{}
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return PrivateKey{}, err
	}

	// clamp
	k[0] &= 248
	k[31] = (k[31] & 127) | 64
	return PrivateKey{k: k}, nil
}

func (k PrivateKey) PublicKey() PublicKey {
	pub := PublicKey{}
	curve25519.ScalarBaseMult(&pub.k, &k.k)
	return pub
}

func (k PrivateKey) IsZero() bool {
	return k.k == [PrivateKeyLen]byte{}
}

func (k PrivateKey) EncodeToString() string {
	return base64.StdEncoding.EncodeToString(k.k[:])
}

func (k PrivateKey) MarshalText() ([]byte, error) {
	return encodeText(k.k[:]), nil
}

func (k *PrivateKey) UnmarshalText(text []byte) error {
	return decodeText(k.k[:], text)
}

func (k PublicKey) IsZero() bool {
	return k.k == [PublicKeyLen]byte{}
}

func (k PublicKey) EncodeToString() string {
	return base64.StdEncoding.EncodeToString(k.k[:])
}

func (k *PublicKey) DecodeFromString(s string) error {
	return decodeText(k.k[:], []byte(s))
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return encodeText(k.k[:]), nil
}

func (k *PublicKey) UnmarshalText(text []byte) error {
	return decodeText(k.k[:], text)
}

func (k PublicKey) String() string {
	return k.EncodeToString()
}

// ShortString returns the first 8 characters of the encoded key for log lines.
func (k PublicKey) ShortString() string {
	return k.EncodeToString()[:8] + "..."
}

// ParsePublicKey decodes a base64 encoded public key as printed by wg(8).
func ParsePublicKey(s string) (PublicKey, error) {
	var key PublicKey
	if err := key.DecodeFromString(s); err != nil {
		return PublicKey{}, err
	}
	return key, nil
}

func encodeText(raw []byte) []byte {
	b := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(b, raw)
	return b
}

func decodeText(dst []byte, text []byte) error {
	if base64.StdEncoding.DecodedLen(len(text)) < len(dst) {
		return fmt.Errorf("%w: wrong length", ErrInvalidKey)
	}
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
	n, err := base64.StdEncoding.Decode(raw, bytes.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%w: wrong length", ErrInvalidKey)
	}
	copy(dst, raw[:n])
	return nil
}

// Generator produces WireGuard key pairs from a random source.
type Generator struct {
	rand io.Reader
}

func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// NewGeneratorFromReader is used by tests to inject a failing or deterministic source.
func NewGeneratorFromReader(r io.Reader) *Generator {
	return &Generator{rand: r}
}

func (g *Generator) GenerateKey() (PrivateKey, error) {
	return newPrivateKey(g.rand)
}
