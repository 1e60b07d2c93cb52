package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stegtext/internal/carrier"
	"stegtext/internal/mncodec"
	"stegtext/internal/services"
)

type validateOutput struct {
	Valid    bool     `json:"valid"`
	Expected []string `json:"expected"`
	Observed []string `json:"observed"`
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate <secret> [file]",
		Short:       "Check that a text carries a secret in its digits",
		Long:        "Reads the text from file, or from stdin when file is omitted or '-'.",
		Args:        cobra.RangeArgs(1, 2),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := mncodec.EncodeSecret(args[0])
			if err != nil {
				return err
			}
			text, err := readText(cmd, args[1:])
			if err != nil {
				return err
			}

			out := validateOutput{
				Valid:    carrier.Validate(text, pairs),
				Expected: pairs,
				Observed: carrier.DigitGroups(text),
			}
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Expected: %s\n", strings.Join(out.Expected, " "))
				fmt.Fprintf(w, "Observed: %s\n", strings.Join(out.Observed, " "))
				fmt.Fprintf(w, "Valid:    %s\n", yesNo(out.Valid))
			}
			if !out.Valid {
				return services.Wrap(services.ErrValidation, "cli", "validate", "text does not carry the secret", nil)
			}
			return nil
		},
	}
}

func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(data), nil
}
