package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fundledger/internal/genesis"
)

// InitResult is the output of init.
type InitResult struct {
	Database string `json:"database"`
	Holders  int    `json:"holders"`
	Minted   uint64 `json:"minted"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("Created %d holders (%d minted) in %s", r.Holders, r.Minted, r.Database)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <genesis.yaml>",
		Short: "Seed the ledger with token holders",
		Long: `Create the database if needed and seed it from a genesis file.

Each holder in the file gets a holder cell controlled by its authority,
credited with its balance. Seeding records no executions.

Example:
  fundledger init --db ./fundledger.db ./genesis.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInit(opts *RootOptions, path string, cmd *cobra.Command) error {
	entries, err := genesis.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid genesis file", err)
	}

	s, err := openSession(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := genesis.Apply(cmd.Context(), s.host, entries); err != nil {
		return WrapExitError(ExitFailure, "genesis failed", err)
	}

	result := InitResult{Database: opts.Config.Database.Path, Holders: len(entries)}
	for _, e := range entries {
		result.Minted += e.Balance
	}
	return opts.formatter(cmd).Success(result)
}
