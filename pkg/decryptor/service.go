// Package decryptor turns encrypted telegram frames back into plaintext
// P1 telegrams using the meter's AES-128-GCM profile.
package decryptor

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrDecryptionFailed covers both a wrong key and a corrupted ciphertext or
// tag. No partial plaintext is ever produced.
var ErrDecryptionFailed = errors.New("telegram decryption failed")

// Profile describes the vendor's symmetric-encryption wire layout. The GCM
// parameters vary slightly across meter vendors, so they are configuration
// rather than constants.
type Profile struct {
	// Marker is the first byte of an encrypted frame.
	Marker byte
	// SystemTitleLen is the length of the system title following the
	// two-byte header. The GCM nonce is system title + frame counter and
	// must come to 12 bytes.
	SystemTitleLen int
	// TagLen is the length of the trailing authentication tag.
	TagLen int
	// AAD is prepended as associated authenticated data when the vendor
	// profile requires it; most residential meters use none.
	AAD []byte
}

// DefaultProfile matches the common DLMS-style residential profile:
// 0xDB marker, 8-byte system title, 4-byte frame counter, 12-byte tag.
var DefaultProfile = Profile{Marker: 0xDB, SystemTitleLen: 8, TagLen: 12}

const frameCounterLen = 4

// ParseKey validates and decodes a pre-shared key. Exactly 32 hexadecimal
// characters (16 bytes); anything else is a configuration error.
func ParseKey(keyHex string) ([]byte, error) {
	if len(keyHex) != 32 {
		return nil, fmt.Errorf("decryption key must be 32 hex characters, got %d", len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decryption key is not valid hex: %w", err)
	}
	return key, nil
}

type Decryptor struct {
	profile Profile
	aead    cipher.AEAD
}

// New builds a decryptor for the given key, or a pass-through when no key
// is configured (key == nil).
func New(key []byte, profile Profile) (*Decryptor, error) {
	if key == nil {
		return &Decryptor{profile: profile}, nil
	}
	if profile.SystemTitleLen+frameCounterLen != 12 {
		return nil, fmt.Errorf("profile nonce length must be 12 bytes, got %d", profile.SystemTitleLen+frameCounterLen)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid AES key: %w", err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, profile.TagLen)
	if err != nil {
		return nil, fmt.Errorf("GCM tag size %d: %w", profile.TagLen, err)
	}
	return &Decryptor{profile: profile, aead: aead}, nil
}

// Enabled reports whether a key is configured.
func (d *Decryptor) Enabled() bool {
	return d.aead != nil
}

// Decrypt transforms a complete encrypted frame into the plaintext telegram.
// Without a key the input passes through unchanged.
func (d *Decryptor) Decrypt(frame []byte) ([]byte, error) {
	if d.aead == nil {
		return frame, nil
	}
	stl := d.profile.SystemTitleLen
	headerLen := stl + 10
	if len(frame) < headerLen+d.profile.TagLen {
		return nil, fmt.Errorf("%w: frame too short (%d bytes)", ErrDecryptionFailed, len(frame))
	}
	if frame[0] != d.profile.Marker || frame[1] != byte(stl) {
		return nil, fmt.Errorf("%w: bad header %02X%02X", ErrDecryptionFailed, frame[0], frame[1])
	}

	nonce := make([]byte, 0, 12)
	nonce = append(nonce, frame[2:2+stl]...)
	nonce = append(nonce, frame[2+stl+4:2+stl+8]...)

	plaintext, err := d.aead.Open(nil, nonce, frame[headerLen:], d.profile.AAD)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// Encrypt builds an encrypted wire frame from a plaintext telegram. Used by
// telegram simulators and round-trip tests; systemTitle must be
// SystemTitleLen bytes and counter is the 4-byte frame counter.
func Encrypt(plaintext, key []byte, profile Profile, systemTitle []byte, counter uint32) ([]byte, error) {
	if len(systemTitle) != profile.SystemTitleLen {
		return nil, fmt.Errorf("system title must be %d bytes, got %d", profile.SystemTitleLen, len(systemTitle))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid AES key: %w", err)
	}
	aead, err := cipher.NewGCMWithTagSize(block, profile.TagLen)
	if err != nil {
		return nil, err
	}

	counterBytes := []byte{byte(counter >> 24), byte(counter >> 16), byte(counter >> 8), byte(counter)}
	nonce := append(append([]byte(nil), systemTitle...), counterBytes...)
	sealed := aead.Seal(nil, nonce, plaintext, profile.AAD)
	payloadLen := len(sealed) - profile.TagLen

	frame := make([]byte, 0, profile.SystemTitleLen+10+len(sealed))
	frame = append(frame, profile.Marker, byte(profile.SystemTitleLen))
	frame = append(frame, systemTitle...)
	frame = append(frame, 0x82, byte(payloadLen>>8), byte(payloadLen), 0x30)
	frame = append(frame, counterBytes...)
	frame = append(frame, sealed...)
	return frame, nil
}
