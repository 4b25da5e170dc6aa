// Package vault encrypts values on their way into a key-value store.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const saltKey = "vault.salt"

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltSize     = 16
)

var ErrDecrypt = errors.New("vault: cannot decrypt value")

// KV is the plain key-value store underneath the vault. Get returns nil for
// absent keys.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

type Vault struct {
	kv         KV
	passphrase []byte

	once    sync.Once
	aeadErr error
	aead    cipher.AEAD
}

func New(kv KV, passphrase string) *Vault {
	return &Vault{kv: kv, passphrase: []byte(passphrase)}
}

// ensureCipher derives the key on first use.
func (v *Vault) ensureCipher() error {
	v.once.Do(func() {
		salt, err := v.kv.Get(saltKey)
		if err != nil {
			v.aeadErr = fmt.Errorf("reading salt: %w", err)
			return
		}
		if len(salt) == 0 {
			salt = make([]byte, saltSize)
			if _, err := rand.Read(salt); err != nil {
				v.aeadErr = fmt.Errorf("generating salt: %w", err)
				return
			}
			if err := v.kv.Set(saltKey, salt); err != nil {
				v.aeadErr = fmt.Errorf("storing salt: %w", err)
				return
			}
		}

		key := argon2.IDKey(v.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			v.aeadErr = fmt.Errorf("creating cipher: %w", err)
			return
		}
		v.aead = aead
	})
	return v.aeadErr
}

// Get returns the decrypted value for key, or nil when absent.
func (v *Vault) Get(key string) ([]byte, error) {
	if err := v.ensureCipher(); err != nil {
		return nil, err
	}
	sealed, err := v.kv.Get(key)
	if err != nil {
		return nil, err
	}
	if sealed == nil {
		return nil, nil
	}

	ns := v.aead.NonceSize()
	if len(sealed) < ns {
		return nil, ErrDecrypt
	}
	plain, err := v.aead.Open(nil, sealed[:ns], sealed[ns:], []byte(key))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func (v *Vault) Set(key string, value []byte) error {
	if err := v.ensureCipher(); err != nil {
		return err
	}
	nonce := make([]byte, v.aead.NonceSize(), v.aead.NonceSize()+len(value)+chacha20poly1305.Overhead)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	// The key is bound as associated data so a value cannot be moved to another key.
	return v.kv.Set(key, v.aead.Seal(nonce, nonce, value, []byte(key)))
}

func (v *Vault) Delete(key string) error {
	return v.kv.Delete(key)
}
