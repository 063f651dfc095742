package crypto

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+plainKey, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, plainKey, got)
}

func TestDecryptKey_WrongPassword(t *testing.T) {
	blob, err := EncryptKey(plainKey, "hunter2")
	require.NoError(t, err)

	_, err = DecryptKey(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptKey_Validation(t *testing.T) {
	_, err := EncryptKey(plainKey, "")
	assert.Error(t, err, "empty password")

	_, err = EncryptKey("abcd", "pw")
	assert.Error(t, err, "short key")

	_, err = EncryptKey("not hex", "pw")
	assert.Error(t, err)
}

func TestEncryptKey_UniqueCiphertexts(t *testing.T) {
	a, err := EncryptKey(plainKey, "pw")
	require.NoError(t, err)
	b, err := EncryptKey(plainKey, "pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh salt and nonce per encryption")
}

func TestLoadKey_Resolution(t *testing.T) {
	// Raw key wins and is normalized.
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + plainKey})
	require.NoError(t, err)
	assert.Equal(t, plainKey, got)

	// Encrypted file path.
	blob, err := EncryptKey(plainKey, "pw")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err = LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, plainKey, got)

	// Nothing configured.
	cfg := KeyConfig{}
	assert.False(t, cfg.Configured())
	_, err = LoadKey(cfg)
	assert.Error(t, err)
}
