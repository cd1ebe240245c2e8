// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SignatureLength is the width of the compact (R||S) signature format
// used across the peer wire protocol.
const SignatureLength = 64

// PublicKeyLength is the width of a compressed secp256k1 public key.
const PublicKeyLength = 33

// GenerateKey creates a new secp256k1 keypair.
func GenerateKey() (priv []byte, pub []byte, err error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	privBytes := key.Serialize()
	pubBytes := key.PubKey().SerializeCompressed()
	return privBytes, pubBytes, nil
}

// Sign computes sign(hash(buf), priv), returning a 64-byte compact
// (R||S) signature. It goes through SignCompact's recoverable format
// and strips the leading recovery-id byte, since the wire format here
// carries the signer's public key alongside the signature rather than
// recovering it.
func Sign(buf []byte, priv []byte) ([]byte, error) {
	key := secp256k1.PrivKeyFromBytes(priv)
	digest := Hash(buf)
	recoverable := ecdsa.SignCompact(key, digest[:], false)
	if len(recoverable) != SignatureLength+1 {
		return nil, fmt.Errorf("crypto: unexpected signature length %d", len(recoverable))
	}
	return recoverable[1:], nil
}

// Verify reports whether sig is a valid signature over hash(buf) under pub.
func Verify(buf []byte, sig []byte, pub []byte) bool {
	if len(sig) != SignatureLength {
		return false
	}
	pubKey, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}

	var rBytes, sBytes secp256k1.ModNScalar
	if overflow := rBytes.SetByteSlice(sig[:32]); overflow {
		return false
	}
	if overflow := sBytes.SetByteSlice(sig[32:]); overflow {
		return false
	}
	signature := ecdsa.NewSignature(&rBytes, &sBytes)

	digest := Hash(buf)
	return signature.Verify(digest[:], pubKey)
}
