package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyStoreKeyring(t *testing.T) {
	keyring.MockInit()

	ks, err := NewKeyStore(t.TempDir(), "")
	require.NoError(t, err)

	require.NoError(t, ks.Set(SecretLLMKey, "sk-from-keyring"))

	got, err := ks.Get(SecretLLMKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-keyring", got)

	require.NoError(t, ks.Delete(SecretLLMKey))
	_, err = ks.Get(SecretLLMKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyStoreVaultFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain"))
	t.Cleanup(keyring.MockInit)

	dir := t.TempDir()
	ks, err := NewKeyStore(dir, "vault-pass")
	require.NoError(t, err)

	require.NoError(t, ks.Set(SecretLLMKey, "sk-from-vault"))

	raw, err := os.ReadFile(filepath.Join(dir, vaultFile))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-from-vault")

	reopened, err := NewKeyStore(dir, "vault-pass")
	require.NoError(t, err)
	got, err := reopened.Get(SecretLLMKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-vault", got)

	wrong, err := NewKeyStore(dir, "wrong-pass")
	require.NoError(t, err)
	_, err = wrong.Get(SecretLLMKey)
	assert.ErrorContains(t, err, "decrypt vault")

	require.NoError(t, ks.Delete(SecretLLMKey))
	_, err = ks.Get(SecretLLMKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyStoreVaultDisabled(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain"))
	t.Cleanup(keyring.MockInit)

	ks, err := NewKeyStore(t.TempDir(), "")
	require.NoError(t, err)

	assert.Error(t, ks.Set(SecretLLMKey, "x"))
	_, err = ks.Get(SecretLLMKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyStoreResolve(t *testing.T) {
	keyring.MockInit()

	ks, err := NewKeyStore(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, ks.Set(SecretLLMKey, "sk-secret"))

	got, err := ks.Resolve(Placeholder, SecretLLMKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", got)

	got, err = ks.Resolve("sk-plain", SecretLLMKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-plain", got)

	_, err = ks.Resolve(Placeholder, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "(none)", MaskKey(""))
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "sk-...cdef", MaskKey("sk-0123456789abcdef"))
}
