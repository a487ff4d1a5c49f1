package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

// ConfigReport is the output of config check.
type ConfigReport struct {
	Database     string            `json:"database"`
	Addr         string            `json:"addr"`
	Processor    string            `json:"processor"`
	TokenService string            `json:"token_service"`
	TreasuryFile string            `json:"treasury_file,omitempty"`
	Treasury     map[string]string `json:"treasury"`
	Collapsed    bool              `json:"collapsed"`

	tiers []string
}

func (r ConfigReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "database       %s\n", r.Database)
	fmt.Fprintf(&b, "addr           %s\n", r.Addr)
	fmt.Fprintf(&b, "processor      %s\n", r.Processor)
	fmt.Fprintf(&b, "token service  %s\n", r.TokenService)
	source := r.TreasuryFile
	if source == "" {
		source = "(built-in)"
	}
	fmt.Fprintf(&b, "treasury       %s", source)
	for _, tier := range r.tiers {
		fmt.Fprintf(&b, "\n  %-5s %s", tier, r.Treasury[tier])
	}
	if r.Collapsed {
		b.WriteString("\nwarning: every tier uses the same treasury source")
	}
	return b.String()
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate configuration and print the treasury rules",
		Long: `Load configuration from LEDGER_* variables and flags, validate it and
print the resolved program identities and treasury allow-list.

Example:
  LEDGER_TREASURY_FILE=./treasury.cue fundledger config check`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigCheck(rootOpts, cmd)
		},
	})
	return cmd
}

func runConfigCheck(opts *RootOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}
	proc, err := cfg.Program.Processor()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}
	svc, err := cfg.Program.TokenService()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}
	allow, err := cfg.Treasury.AllowList()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid treasury allow-list", err)
	}

	report := ConfigReport{
		Database:     cfg.Database.Path,
		Addr:         cfg.Server.Addr(),
		Processor:    proc.String(),
		TokenService: svc.String(),
		TreasuryFile: cfg.Treasury.File,
		Treasury:     make(map[string]string),
		Collapsed:    allow.Collapsed(),
	}
	for _, rule := range allow.Rules() {
		report.Treasury[string(rule.Tier)] = rule.AllowedSource.String()
		report.tiers = append(report.tiers, string(rule.Tier))
	}
	if report.Collapsed {
		slog.Warn("treasury tiers collapse to one source", "source", report.Treasury[report.tiers[0]])
	}

	return opts.formatter(cmd).Success(report)
}
