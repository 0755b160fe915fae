// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// rcutil inspects and manipulates router descriptors and identity
// keys.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"

	"github.com/tewinget/loki-network/config"
	"github.com/tewinget/loki-network/core/crypto"
	"github.com/tewinget/loki-network/core/crypto/pem"
	"github.com/tewinget/loki-network/core/log"
	"github.com/tewinget/loki-network/core/nettime"
	"github.com/tewinget/loki-network/core/rc"
	"github.com/tewinget/loki-network/core/utils"
	"github.com/tewinget/loki-network/version"
)

// loadConfig loads the optional config file and installs its logging
// and descriptor policy.
func loadConfig(cfgFile string) (*config.Config, error) {
	if cfgFile == "" {
		return nil, nil
	}
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if _, err := log.New(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Disable); err != nil {
		return nil, err
	}
	cfg.ApplyPolicy()
	return cfg, nil
}

const (
	flagKeyFile    = "keyfile"
	flagConfigFile = "config"
	flagNickname   = "nick"
	flagExpired    = "allow-expired"
	flagKeyType    = "type"
)

var rootCmd = &cobra.Command{
	Use:           "rcutil",
	Short:         "Router descriptor tool",
	Long:          "A CLI tool for generating identity keys and creating, verifying, and inspecting signed router descriptors.",
	Version:       version.String() + " (" + versioninfo.Short() + ")",
	SilenceErrors: true,
	SilenceUsage:  true,
}

var keygenCmd = &cobra.Command{
	Use:   "keygen <keyfile>",
	Short: "Generate a new keypair",
	Long:  "Generate a new identity, encryption, or post-quantum keypair and write it to keyfile in PEM form.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyType, _ := cmd.Flags().GetString(flagKeyType)
		if utils.Exists(args[0]) {
			return fmt.Errorf("refusing to overwrite existing key %s", args[0])
		}
		c, err := crypto.NewProvider()
		if err != nil {
			return err
		}
		switch keyType {
		case "identity", "encryption":
			var sk *crypto.SecretKey
			if keyType == "identity" {
				sk, err = c.IdentityKeygen()
			} else {
				sk, err = c.EncryptionKeygen()
			}
			if err != nil {
				return err
			}
			if err := pem.ToFile(args[0], sk); err != nil {
				return err
			}
			pub := sk.PublicKey()
			fmt.Printf("%s\n", pub)
			return nil
		case "pq":
			kp, err := c.PQKeyGen()
			if err != nil {
				return err
			}
			return pem.ToFile(args[0], kp)
		default:
			return fmt.Errorf("unknown key type %q", keyType)
		}
	},
}

var signCmd = &cobra.Command{
	Use:   "sign <rcfile>",
	Short: "Create and sign a router descriptor",
	Long:  "Create a fresh router descriptor, sign it with the given identity key, and write it to rcfile.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyFile, _ := cmd.Flags().GetString(flagKeyFile)
		cfgFile, _ := cmd.Flags().GetString(flagConfigFile)
		nick, _ := cmd.Flags().GetString(flagNickname)

		c, err := crypto.NewProvider()
		if err != nil {
			return err
		}
		var sk crypto.SecretKey
		if err := pem.FromFile(keyFile, &sk); err != nil {
			return err
		}

		netID := rc.DefaultNetID()
		if cfg, err := loadConfig(cfgFile); err != nil {
			return err
		} else if cfg != nil {
			netID = cfg.NetID()
			if nick == "" {
				nick = cfg.Router.Nickname
			}
		}

		contact := &rc.RouterContact{NetID: netID}
		contact.SetNick(nick)
		contact.RouterVersion = rc.CurrentRouterVersion()
		if err := contact.Sign(c, &sk); err != nil {
			return err
		}
		return contact.Write(args[0])
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <rcfile>",
	Short: "Verify a router descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString(flagConfigFile)
		allowExpired, _ := cmd.Flags().GetBool(flagExpired)

		c, err := crypto.NewProvider()
		if err != nil {
			return err
		}
		var contact rc.RouterContact
		if err := contact.Read(args[0]); err != nil {
			return err
		}

		netID := rc.DefaultNetID()
		if cfg, err := loadConfig(cfgFile); err != nil {
			return err
		} else if cfg != nil {
			netID = cfg.NetID()
		}

		if err := contact.Verify(c, &netID, nettime.Now(), allowExpired); err != nil {
			return err
		}
		fmt.Printf("OK %s\n", contact.PubKey)
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <rcfile>",
	Short: "Dump a router descriptor in human readable form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var contact rc.RouterContact
		if err := contact.Read(args[0]); err != nil {
			return err
		}

		fmt.Printf("format version: %d\n", contact.Version)
		fmt.Printf("netid: %s\n", contact.NetID)
		fmt.Printf("identity: %s\n", contact.PubKey)
		fmt.Printf("encryption: %s\n", contact.EncKey)
		if contact.HasNick() {
			fmt.Printf("nickname: %s\n", contact.Nick())
		}
		if contact.RouterVersion != nil {
			fmt.Printf("router version: %s\n", contact.RouterVersion)
		}
		updated := time.UnixMilli(int64(nettime.Milliseconds(contact.LastUpdated))).UTC()
		fmt.Printf("last updated: %s\n", updated.Format(time.RFC3339))
		fmt.Printf("expired: %v\n", contact.IsExpired(nettime.Now()))
		for _, a := range contact.Addrs {
			fmt.Printf("address: %s rank=%d dialect=%s\n", a.String(), a.Rank, a.Dialect)
		}
		fmt.Printf("signature: %s\n", hex.EncodeToString(contact.Signature[:]))
		return nil
	},
}

func main() {
	keygenCmd.Flags().String(flagKeyType, "identity", "key type to generate: identity, encryption, or pq")

	signCmd.Flags().String(flagKeyFile, "", "path to the PEM identity key (required)")
	signCmd.Flags().String(flagConfigFile, "", "path to the router TOML config")
	signCmd.Flags().String(flagNickname, "", "nickname to advertise")
	_ = signCmd.MarkFlagRequired(flagKeyFile)

	verifyCmd.Flags().String(flagConfigFile, "", "path to the router TOML config")
	verifyCmd.Flags().Bool(flagExpired, false, "accept expired descriptors")

	rootCmd.AddCommand(keygenCmd, signCmd, verifyCmd, dumpCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rcutil: %v\n", err)
		os.Exit(1)
	}
}
