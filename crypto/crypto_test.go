// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKey()
	require.NoError(t, err)
	require.Len(t, pub, PublicKeyLength)

	msg := []byte("prepare-phase-payload")
	sig, err := Sign(msg, priv)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	require.True(t, Verify(msg, sig, pub))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	priv, pub, err := GenerateKey()
	require.NoError(t, err)

	sig, err := Sign([]byte("original"), priv)
	require.NoError(t, err)

	require.False(t, Verify([]byte("tampered"), sig, pub))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv, _, err := GenerateKey()
	require.NoError(t, err)
	_, otherPub, err := GenerateKey()
	require.NoError(t, err)

	msg := []byte("payload")
	sig, err := Sign(msg, priv)
	require.NoError(t, err)

	require.False(t, Verify(msg, sig, otherPub))
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	_, pub, err := GenerateKey()
	require.NoError(t, err)

	require.False(t, Verify([]byte("x"), []byte{1, 2, 3}, pub))
}

func TestHashDeterministic(t *testing.T) {
	a := Hash([]byte("same input"))
	b := Hash([]byte("same input"))
	require.Equal(t, a, b)

	c := Hash([]byte("different input"))
	require.NotEqual(t, a, c)
}
