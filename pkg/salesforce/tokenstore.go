package salesforce

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/atlasfield/soqlgate/pkg/errors"
)

// StoredToken is the cached authentication state written between runs.
type StoredToken struct {
	AccessToken string    `json:"accessToken"`
	InstanceURL string    `json:"instanceUrl"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// TokenStore persists an access token encrypted at rest. Tokens grant full
// API access, so they are sealed with AES-256-GCM before touching the
// filesystem.
type TokenStore struct {
	fs   afero.Fs
	path string
	aead cipher.AEAD
}

// NewTokenStore creates a token store writing to path on fs. The key must be
// 32 bytes.
func NewTokenStore(fs afero.Fs, path string, key []byte) (*TokenStore, error) {
	if len(key) != 32 {
		return nil, errors.New(errors.CodeInvalidParams, "token store key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "cipher init failed")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "cipher init failed")
	}
	return &TokenStore{fs: fs, path: path, aead: aead}, nil
}

// Save seals and writes the token.
func (s *TokenStore) Save(token *StoredToken) error {
	plaintext, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "token encode failed")
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "nonce generation failed")
	}
	sealed := s.aead.Seal(nonce, nonce, plaintext, nil)

	if err := afero.WriteFile(s.fs, s.path, sealed, 0o600); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "token write failed")
	}
	return nil
}

// Load reads and opens the stored token. A missing file returns a NOT_FOUND
// error; a corrupt or tampered file does too, so the caller falls back to a
// fresh login either way.
func (s *TokenStore) Load() (*StoredToken, error) {
	sealed, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeNotFound, "no cached token")
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "token read failed")
	}

	if len(sealed) < s.aead.NonceSize() {
		return nil, errors.New(errors.CodeNotFound, "cached token unreadable")
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New(errors.CodeNotFound, "cached token unreadable")
	}

	var token StoredToken
	if err := json.Unmarshal(plaintext, &token); err != nil {
		return nil, errors.New(errors.CodeNotFound, "cached token unreadable")
	}
	return &token, nil
}

// Clear removes the cached token.
func (s *TokenStore) Clear() error {
	err := s.fs.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CodeInternal, "token remove failed")
	}
	return nil
}
