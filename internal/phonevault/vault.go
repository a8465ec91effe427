// Package phonevault encrypts contact numbers and derives the short digit
// indices used to search and deduplicate leads without decrypting every row.
package phonevault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"telesales_backend/platform/config"
	"telesales_backend/platform/phone"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize       = 32
	indexLength   = 4
	hkdfInfo      = "telesales/phone-vault/v1"
	defaultPrefix = "880"
)

var (
	// ErrDecryption is returned for corrupt, truncated or foreign ciphertext.
	ErrDecryption = errors.New("phone number could not be decrypted")
	// ErrEmptyNumber is returned when the input has no digits.
	ErrEmptyNumber = errors.New("phone number has no digits")
)

// Indices are the non-reversible search keys of a number.
type Indices struct {
	Last4  string
	First4 string
}

// Sealed is an encrypted number together with its indices.
type Sealed struct {
	Ciphertext string
	Indices
}

// Vault seals and opens phone numbers with AES-256-GCM.
type Vault struct {
	aead   cipher.AEAD
	prefix string
}

// New derives the data key from secret with HKDF-SHA256. countryPrefix is the
// three digit code stripped before computing First4.
func New(secret, countryPrefix string) (*Vault, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("phone vault secret is empty")
	}
	if countryPrefix == "" {
		countryPrefix = defaultPrefix
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Vault{aead: aead, prefix: countryPrefix}, nil
}

// NewFromConfig builds a Vault from application settings.
func NewFromConfig(cfg config.PhoneVaultConfig) (*Vault, error) {
	return New(cfg.GetPhoneVaultKey(), cfg.GetPhoneCountryPrefix())
}

// Encode encrypts raw with a fresh nonce and derives its indices.
// Two encodings of the same number never produce the same ciphertext.
func (v *Vault) Encode(raw string) (Sealed, error) {
	if phone.Digits(raw) == "" {
		return Sealed{}, ErrEmptyNumber
	}

	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Sealed{}, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(raw), nil)
	return Sealed{
		Ciphertext: hex.EncodeToString(sealed),
		Indices:    v.Indices(raw),
	}, nil
}

// Decode returns the raw number. Every failure is reported as ErrDecryption.
func (v *Vault) Decode(ciphertext string) (string, error) {
	data, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: hex decode: %v", ErrDecryption, err)
	}

	nonceSize := v.aead.NonceSize()
	if len(data) < nonceSize+v.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	plaintext, err := v.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(plaintext), nil
}

// Indices derives Last4 and First4 using the vault's country prefix.
func (v *Vault) Indices(raw string) Indices {
	return DeriveIndices(raw, v.prefix)
}

// DeriveIndices strips non-digits, takes Last4 from the full digit string and
// First4 after removing a leading countryPrefix. Short inputs yield as many
// digits as exist.
func DeriveIndices(raw, countryPrefix string) Indices {
	digits := phone.Digits(raw)

	last4 := digits
	if len(last4) > indexLength {
		last4 = last4[len(last4)-indexLength:]
	}

	national := digits
	if countryPrefix != "" && strings.HasPrefix(national, countryPrefix) {
		national = national[len(countryPrefix):]
	}
	first4 := national
	if len(first4) > indexLength {
		first4 = first4[:indexLength]
	}

	return Indices{Last4: last4, First4: first4}
}

// SameNumber compares two raw numbers by their digit strings.
func SameNumber(a, b string) bool {
	da := phone.Digits(a)
	return da != "" && da == phone.Digits(b)
}
