package cli

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/roach88/fundledger/internal/ident"
)

// Key files hold the base58 text of a 64-byte ed25519 private key.

// writeKeyFile writes key to path. It refuses to overwrite an existing file.
func writeKeyFile(path string, key ed25519.PrivateKey) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	if _, err := fmt.Fprintln(f, base58.Encode(key)); err != nil {
		f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	return f.Close()
}

// readKeyFile loads a key written by writeKeyFile.
func readKeyFile(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	raw, err := base58.Decode(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("key file %s: %w", path, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("key file %s: got %d bytes, want %d", path, len(raw), ed25519.PrivateKeySize)
	}
	key := ed25519.PrivateKey(raw)
	if !bytes.Equal(ed25519.NewKeyFromSeed(key.Seed()), key) {
		return nil, fmt.Errorf("key file %s: public half does not match seed", path)
	}
	return key, nil
}

func keyIdentity(key ed25519.PrivateKey) ident.Identity {
	return ident.FromPublicKey(key.Public().(ed25519.PublicKey))
}

// KeygenOptions holds flags for the keygen command.
type KeygenOptions struct {
	*RootOptions
	Out string
}

// KeygenResult is the output of keygen.
type KeygenResult struct {
	Identity string `json:"identity"`
	Path     string `json:"path"`
}

func (r KeygenResult) String() string {
	return fmt.Sprintf("Wrote key for %s to %s", r.Identity, r.Path)
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeygenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key",
		Long: `Generate an ed25519 signing key and write it to a new file.

The key's public half is the identity used as a signer, an organization
owner or a holder authority.

Example:
  fundledger keygen --out ./owner.key`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, key, err := ed25519.GenerateKey(nil)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate key", err)
			}
			if err := writeKeyFile(opts.Out, key); err != nil {
				return WrapExitError(ExitCommandError, "failed to write key", err)
			}
			return opts.formatter(cmd).Success(KeygenResult{Identity: keyIdentity(key).String(), Path: opts.Out})
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "path of the key file to create (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
