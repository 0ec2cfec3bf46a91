package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinic/pkg/document"
	"clinic/pkg/email"
	"clinic/pkg/platform/strings"
)

type documentKind struct {
	normalize func(string) string
	valid     func(string) bool
	format    func(string) string
}

var documentKinds = map[string]documentKind{
	"cpf":   {strings.OnlyDigits, document.IsCPF, strings.FormatCPF},
	"cnpj":  {strings.OnlyDigits, document.IsCNPJ, strings.FormatCNPJ},
	"cep":   {strings.OnlyDigits, document.IsCEP, strings.FormatCEP},
	"phone": {strings.OnlyDigits, document.IsPhone, strings.FormatPhone},
	"email": {email.Normalize, email.IsValid, func(s string) string { return s }},
}

func newCheckDocumentCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "check-document <cpf|cnpj|cep|phone|email> <value>",
		Short:     "Validate a document and print it formatted",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"cpf", "cnpj", "cep", "phone", "email"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := documentKinds[args[0]]
			if !ok {
				return fmt.Errorf("unknown document kind %q", args[0])
			}
			value := kind.normalize(args[1])
			if !kind.valid(value) {
				return fmt.Errorf("%s %q is invalid", args[0], args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), kind.format(value))
			return nil
		},
	}
}
