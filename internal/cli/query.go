package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/ledger"
	"github.com/roach88/fundledger/internal/runtime"
	"github.com/roach88/fundledger/internal/store"
)

// CellOutput renders a decoded cell for the text format.
type CellOutput struct {
	runtime.CellView
}

func (c CellOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "address  %s\n", c.Address)
	fmt.Fprintf(&b, "owner    %s\n", c.Owner)
	fmt.Fprintf(&b, "capacity %d\n", c.Capacity)
	fmt.Fprintf(&b, "kind     %s", c.Kind)
	if c.Record != nil {
		fmt.Fprintf(&b, "\nrecord   %+v", c.Record)
	}
	return b.String()
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <address>",
		Short: "Show a stored cell",
		Long: `Show a stored cell and its decoded record.

Example:
  fundledger show --db ./fundledger.db <address>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := ident.Parse(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid address", err)
			}
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			view, err := s.host.View(cmd.Context(), addr)
			if err != nil {
				return WrapExitError(ExitFailure, "cell not available", err)
			}
			return rootOpts.formatter(cmd).Success(CellOutput{view})
		},
	}
}

// OrganizationList renders organizations for the text format.
type OrganizationList []ledger.OrganizationEntry

func (l OrganizationList) String() string {
	if len(l) == 0 {
		return "No organizations"
	}
	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = fmt.Sprintf("%s  %s", e.Address, e.Organization)
	}
	return strings.Join(lines, "\n")
}

// NewOrgsCommand creates the orgs command.
func NewOrgsCommand(rootOpts *RootOptions) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "orgs",
		Short: "List organizations",
		Long: `List organization records, optionally only those with a given owner.

Examples:
  fundledger orgs
  fundledger orgs --owner <identity> --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner != "" {
				if _, err := parseFlagIdentity("owner", owner); err != nil {
					return err
				}
			}
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			orgs, err := s.host.Organizations(cmd.Context(), owner)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list organizations", err)
			}
			if orgs == nil {
				orgs = []ledger.OrganizationEntry{}
			}
			return rootOpts.formatter(cmd).Success(OrganizationList(orgs))
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "only organizations owned by this identity")
	return cmd
}

// ExecutionList renders the execution log for the text format.
type ExecutionList []store.Execution

func (l ExecutionList) String() string {
	if len(l) == 0 {
		return "No executions"
	}
	lines := make([]string, len(l))
	for i, e := range l {
		line := fmt.Sprintf("%6d  %s  %-19s  %s", e.Seq, e.ID, e.Command, e.Outcome)
		if e.Code != "" {
			line += "  " + e.Code
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the execution log",
		Long: `Show recorded executions, newest first.

Example:
  fundledger log --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			execs, err := s.host.Executions(cmd.Context(), limit)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read execution log", err)
			}
			if execs == nil {
				execs = []store.Execution{}
			}
			return rootOpts.formatter(cmd).Success(ExecutionList(execs))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of executions to show (0 for all)")
	return cmd
}
