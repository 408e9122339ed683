package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "ais-rag"
	vaultFile      = "vault.enc"

	// Placeholder stands in for a secret held by the KeyStore. Config files
	// carry it instead of the real value.
	Placeholder = "[keyring]"

	// SecretLLMKey is the KeyStore entry for the provider API key.
	SecretLLMKey = "llm_api_key"
)

// ErrNotFound is returned when a secret exists in neither backend.
var ErrNotFound = errors.New("secret not found")

// KeyStore manages secure storage of API keys.
// Primary: OS keychain. Fallback: passphrase-encrypted vault file.
type KeyStore struct {
	passphrase string
	vaultPath  string
}

// vaultEnvelope is the on-disk vault. Salt is regenerated on every write.
type vaultEnvelope struct {
	Salt string `json:"salt"`
	Data string `json:"data"`
}

// NewKeyStore creates a key store whose vault lives in dir. An empty
// passphrase disables the vault; only the OS keychain is used.
func NewKeyStore(dir, passphrase string) (*KeyStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &KeyStore{
		passphrase: passphrase,
		vaultPath:  filepath.Join(dir, vaultFile),
	}, nil
}

// Set stores a secret (tries keyring first, falls back to the vault).
func (ks *KeyStore) Set(name, value string) error {
	if err := keyring.Set(keyringService, name, value); err == nil {
		return nil
	}
	return ks.setInVault(name, value)
}

// Get retrieves a secret.
func (ks *KeyStore) Get(name string) (string, error) {
	if val, err := keyring.Get(keyringService, name); err == nil {
		return val, nil
	}
	return ks.getFromVault(name)
}

// Delete removes a secret from both backends.
func (ks *KeyStore) Delete(name string) error {
	_ = keyring.Delete(keyringService, name)
	if ks.passphrase == "" {
		return nil
	}
	return ks.deleteFromVault(name)
}

// Resolve returns value unchanged unless it is Placeholder, in which case the
// named secret is read from the store.
func (ks *KeyStore) Resolve(value, name string) (string, error) {
	if value != Placeholder {
		return value, nil
	}
	secret, err := ks.Get(name)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	return secret, nil
}

// MaskKey returns a masked version of an API key for display.
func MaskKey(key string) string {
	if key == "" {
		return "(none)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}

func (ks *KeyStore) loadVault() (map[string]string, error) {
	data, err := os.ReadFile(ks.vaultPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	if ks.passphrase == "" {
		return nil, fmt.Errorf("vault passphrase not set")
	}

	var env vaultEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode vault salt: %w", err)
	}

	plaintext, err := Decrypt(env.Data, DeriveKey(ks.passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("decrypt vault: %w", err)
	}

	var vault map[string]string
	if err := json.Unmarshal(plaintext, &vault); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	return vault, nil
}

func (ks *KeyStore) saveVault(vault map[string]string) error {
	if ks.passphrase == "" {
		return fmt.Errorf("vault passphrase not set")
	}

	plaintext, err := json.Marshal(vault)
	if err != nil {
		return err
	}

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	encrypted, err := Encrypt(plaintext, DeriveKey(ks.passphrase, salt))
	if err != nil {
		return err
	}

	data, err := json.Marshal(vaultEnvelope{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Data: encrypted,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(ks.vaultPath, data, 0600)
}

func (ks *KeyStore) setInVault(name, value string) error {
	vault, err := ks.loadVault()
	if err != nil {
		return err
	}
	vault[name] = value
	return ks.saveVault(vault)
}

func (ks *KeyStore) getFromVault(name string) (string, error) {
	if ks.passphrase == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	vault, err := ks.loadVault()
	if err != nil {
		return "", err
	}
	val, ok := vault[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return val, nil
}

func (ks *KeyStore) deleteFromVault(name string) error {
	vault, err := ks.loadVault()
	if err != nil {
		return nil // nothing to delete
	}
	if _, ok := vault[name]; !ok {
		return nil
	}
	delete(vault, name)
	return ks.saveVault(vault)
}
