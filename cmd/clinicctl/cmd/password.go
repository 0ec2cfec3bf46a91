package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clinic/internal/platform/config"
	"clinic/pkg/secrets"
)

func newHashPasswordCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash a password for seeding users",
		Long: `Checks the password against the configured policy and prints its PBKDF2
hash. Without an argument the password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			password, err := readPassword(cmd, args)
			if err != nil {
				return err
			}
			if violations := cfg.Security.PasswordPolicy().Check(password); len(violations) > 0 {
				for _, v := range violations {
					cmd.PrintErrln(v.Message)
				}
				return errors.New("password does not meet the policy")
			}
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Security.PBKDF2Iterations
			}
			hash, err := secrets.HashPassword(password, iterations)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", secrets.DefaultIterations, "PBKDF2 iterations (defaults to SECURITY_PBKDF2_ITERATIONS)")
	return cmd
}

func readPassword(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
