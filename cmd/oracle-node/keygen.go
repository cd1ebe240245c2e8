// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/oracle/crypto"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a secp256k1 keypair for a node's config.privateKey/publicKey",
		RunE: func(cmd *cobra.Command, args []string) error {
			priv, pub, err := crypto.GenerateKey()
			if err != nil {
				return fmt.Errorf("keygen: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "privateKey: %s\npublicKey:  %s\n",
				hex.EncodeToString(priv), hex.EncodeToString(pub))
			return nil
		},
	}
}
