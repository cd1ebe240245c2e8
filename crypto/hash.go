// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package crypto implements the hash and ECDSA primitives the
// coordination protocol signs over. All protocol signatures cover
// codec.Encode(payload), never ad-hoc JSON.
package crypto

import "crypto/sha256"

// Hash returns the SHA-256 digest of buf.
func Hash(buf []byte) [32]byte {
	return sha256.Sum256(buf)
}
