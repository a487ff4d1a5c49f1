package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/processor"
	"github.com/roach88/fundledger/internal/receipt"
	"github.com/roach88/fundledger/internal/runtime"
)

// ReceiptOutput renders a receipt for the text format.
type ReceiptOutput struct {
	*receipt.Receipt
}

func (r ReceiptOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Execution %s (seq %d): %s %s\n", r.ExecutionID, r.Seq, r.Command, r.Outcome)
	for _, w := range r.Written {
		fmt.Fprintf(&b, "  wrote %s\n", w)
	}
	fmt.Fprintf(&b, "  receipt %s", r.Hash)
	return b.String()
}

// signAndSubmit signs tx with the key at keyPath and submits it.
// A rejected command is reported through the formatter and returned as an
// ExitFailure.
func signAndSubmit(opts *RootOptions, cmd *cobra.Command, s *session, tx runtime.Transaction, keyPath string) error {
	key, err := readKeyFile(keyPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load key", err)
	}
	tx.Sign(key)

	out := opts.formatter(cmd)
	out.VerboseLog("Submitting to %s with %d accounts", tx.Program, len(tx.Accounts))

	rec, err := s.host.Submit(cmd.Context(), tx)
	if err != nil {
		if rec == nil {
			return WrapExitError(ExitCommandError, "failed to submit", err)
		}
		if ferr := out.Fault(err, rec); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "command rejected", err)
	}
	return out.Success(ReceiptOutput{rec})
}

// signerOf reads the key at path and returns its identity.
func signerOf(path string) (ident.Identity, error) {
	key, err := readKeyFile(path)
	if err != nil {
		return ident.Zero, WrapExitError(ExitCommandError, "failed to load key", err)
	}
	return keyIdentity(key), nil
}

func parseFlagIdentity(name, value string) (ident.Identity, error) {
	id, err := ident.Parse(value)
	if err != nil {
		return ident.Zero, WrapExitError(ExitCommandError, "invalid --"+name, err)
	}
	return id, nil
}

// CreateOrgOptions holds flags for the create-org command.
type CreateOrgOptions struct {
	*RootOptions
	Key        string
	Name       string
	GroupingID string
	Quorum     uint8
}

// NewCreateOrgCommand creates the create-org command.
func NewCreateOrgCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOrgOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-org",
		Short: "Create or replace an organization",
		Long: `Create an organization owned by the key's identity.

The organization cell is derived from the owner and the name. Creating an
organization that already exists replaces it and resets its total.

Example:
  fundledger create-org --key ./owner.key --name acme --grouping acme-fund --quorum 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := signerOf(opts.Key)
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.Close()

			tx, err := s.host.CreateOrganizationTx(owner, processor.CreateOrganization{
				Name:       opts.Name,
				GroupingID: opts.GroupingID,
				Quorum:     opts.Quorum,
				Owner:      owner.String(),
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to derive organization address", err)
			}
			return signAndSubmit(opts.RootOptions, cmd, s, tx, opts.Key)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "owner key file (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "organization name (required)")
	cmd.Flags().StringVar(&opts.GroupingID, "grouping", "", "grouping id")
	cmd.Flags().Uint8Var(&opts.Quorum, "quorum", 1, "approval quorum")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// InvestOptions holds flags for the invest command.
type InvestOptions struct {
	*RootOptions
	Key          string
	Organization string
	Name         string
	GroupingID   string
	Amount       uint64
	Source       string
	Destination  string
}

// NewInvestCommand creates the invest command.
func NewInvestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invest",
		Short: "Invest in an organization",
		Long: `Transfer value into an organization and record the investment.

The key's identity is the investor and must control the source holder.
--name and --grouping must match the organization record.

Example:
  fundledger invest --key ./alice.key --org <organization> --name acme \
    --grouping acme-fund --amount 100 --source <alice holder> --dest <vault holder>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := signerOf(opts.Key)
			if err != nil {
				return err
			}
			org, err := parseFlagIdentity("org", opts.Organization)
			if err != nil {
				return err
			}
			source, err := parseFlagIdentity("source", opts.Source)
			if err != nil {
				return err
			}
			dest, err := parseFlagIdentity("dest", opts.Destination)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.Close()

			tx, err := s.host.InvestTx(caller, org, source, dest, processor.Invest{
				OrganizationName: opts.Name,
				GroupingID:       opts.GroupingID,
				Amount:           opts.Amount,
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to derive investment address", err)
			}
			return signAndSubmit(opts.RootOptions, cmd, s, tx, opts.Key)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "investor key file (required)")
	cmd.Flags().StringVar(&opts.Organization, "org", "", "organization address (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "organization name (required)")
	cmd.Flags().StringVar(&opts.GroupingID, "grouping", "", "grouping id")
	cmd.Flags().Uint64Var(&opts.Amount, "amount", 0, "amount to invest")
	cmd.Flags().StringVar(&opts.Source, "source", "", "holder the value leaves (required)")
	cmd.Flags().StringVar(&opts.Destination, "dest", "", "holder the value enters (required)")
	for _, f := range []string{"key", "org", "name", "source", "dest"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

// DisburseOptions holds flags for the disburse command.
type DisburseOptions struct {
	*RootOptions
	Key         string
	Tier        string
	Amount      uint64
	Source      string
	Destination string
}

// NewDisburseCommand creates the disburse command.
func NewDisburseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DisburseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "disburse",
		Short: "Pay out of a tier's treasury",
		Long: `Transfer value out of the treasury holder allowed for a tier.

The key's identity must control the treasury holder. The source defaults
to the tier's allowed treasury.

Example:
  fundledger disburse --key ./treasurer.key --tier prod --amount 500 --dest <holder>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, err := signerOf(opts.Key)
			if err != nil {
				return err
			}
			dest, err := parseFlagIdentity("dest", opts.Destination)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.Close()

			var source ident.Identity
			if opts.Source != "" {
				source, err = parseFlagIdentity("source", opts.Source)
			} else {
				source, err = s.host.Processor().Treasury().Source(opts.Tier)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "no treasury source", err)
			}

			tx := s.host.DisburseTx(source, dest, authority, processor.Disburse{
				Amount: opts.Amount,
				Tier:   opts.Tier,
			})
			return signAndSubmit(opts.RootOptions, cmd, s, tx, opts.Key)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "treasury authority key file (required)")
	cmd.Flags().StringVar(&opts.Tier, "tier", "", "environment tier: local, dev or prod (required)")
	cmd.Flags().Uint64Var(&opts.Amount, "amount", 0, "amount to disburse")
	cmd.Flags().StringVar(&opts.Source, "source", "", "treasury holder (default: the tier's allowed source)")
	cmd.Flags().StringVar(&opts.Destination, "dest", "", "receiving holder (required)")
	for _, f := range []string{"key", "tier", "dest"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}
