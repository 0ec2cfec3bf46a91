// Package cmd implements the clinicctl operator commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X clinic/cmd/clinicctl/cmd.Version=...".
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clinicctl",
		Short: "Operator tooling for the clinic registry",
		Long: `clinicctl runs maintenance tasks against the clinic registry.

Commands:
  migrate         apply the embedded database migrations
  hash-password   hash a password with the configured PBKDF2 settings
  check-document  validate and format CPF, CNPJ, CEP, phone or email values
  version         print the build version`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newHashPasswordCmd(),
		newCheckDocumentCmd(),
		newVersionCmd(),
	)
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clinicctl %s\n", Version)
		},
	}
}
