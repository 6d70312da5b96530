package cli

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/casserver/pkg/validation"
	"github.com/spf13/cobra"
)

var failureCodes = []validation.FailureCode{
	validation.FailureInvalidRequest,
	validation.FailureInvalidTicket,
	validation.FailureInvalidService,
	validation.FailureInternalError,
	validation.FailureUnauthorizedServiceProxy,
}

func newFailureCommand(opts *options) *cobra.Command {
	var code, message string

	cmd := &cobra.Command{
		Use:   "failure",
		Short: "Render a CAS authentication failure response",
		Long: `Prints a cas:serviceResponse failure document.

Example:
  cas-payload failure --code INVALID_TICKET --message "Ticket ST-1 not recognized"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFailure(cmd, opts, code, message)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Failure code (required)")
	cmd.Flags().StringVar(&message, "message", "", "Failure description")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func runFailure(cmd *cobra.Command, opts *options, code, message string) error {
	failureCode, err := parseFailureCode(code)
	if err != nil {
		return err
	}

	builder := validation.NewResponseBuilder(validation.BuilderConfig{
		Indent: opts.cfg.Response.Indent,
	})

	body, err := builder.BuildFailure(failureCode, message)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(body))
	return nil
}

func parseFailureCode(code string) (validation.FailureCode, error) {
	upper := validation.FailureCode(strings.ToUpper(code))
	for _, known := range failureCodes {
		if upper == known {
			return known, nil
		}
	}

	names := make([]string, len(failureCodes))
	for i, c := range failureCodes {
		names[i] = string(c)
	}
	return "", fmt.Errorf("unknown failure code %q (must be one of %s)", code, strings.Join(names, ", "))
}
