package services

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringService_RoundTrip(t *testing.T) {
	svc := NewKeyringService(keyring.NewArrayKeyring(nil))

	require.NoError(t, svc.StoreApiKey("openrouter", []byte("sk-or")))
	got, err := svc.GetApiKey("openrouter")
	require.NoError(t, err)
	assert.Equal(t, "sk-or", got)

	keys, err := svc.ListApiKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"openrouter"}, keys)

	require.NoError(t, svc.DeleteApiKey("openrouter"))
	_, err = svc.GetApiKey("openrouter")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)

	assert.NoError(t, svc.DeleteApiKey("openrouter"), "deleting a missing key is a no-op")
}

func TestKeyringService_Validation(t *testing.T) {
	svc := NewKeyringService(keyring.NewArrayKeyring(nil))

	assert.Error(t, svc.StoreApiKey("openrouter", nil))
	assert.Error(t, svc.StoreApiKey(" ", []byte("k")))
	_, err := svc.GetApiKey("")
	assert.Error(t, err)
	assert.Error(t, svc.DeleteApiKey(""))
}
