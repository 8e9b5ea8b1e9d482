package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tolelom/cryptowarriors/core"
	"github.com/tolelom/cryptowarriors/crypto"
)

// Fund sets the WAR and native balances of address, keeping its nonce.
func Fund(t testing.TB, s core.State, address string, war, native uint64) {
	t.Helper()
	acc, err := s.GetAccount(address)
	require.NoError(t, err)
	acc.Balance = war
	acc.Native = native
	require.NoError(t, s.SetAccount(acc))
}

// Balance returns the WAR balance of address.
func Balance(t testing.TB, s core.State, address string) uint64 {
	t.Helper()
	acc, err := s.GetAccount(address)
	require.NoError(t, err)
	return acc.Balance
}

// Native returns the native-coin balance of address.
func Native(t testing.TB, s core.State, address string) uint64 {
	t.Helper()
	acc, err := s.GetAccount(address)
	require.NoError(t, err)
	return acc.Native
}

// KeyPair generates a key pair and returns the private key with its address.
func KeyPair(t testing.TB) (crypto.PrivateKey, string) {
	t.Helper()
	priv, pub, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return priv, pub.Hex()
}
