package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"stegtext/internal/mncodec"
)

type encodeOutput struct {
	Secret  string   `json:"secret"`
	Tokens  []string `json:"tokens"`
	Pairs   []string `json:"pairs"`
	Payload string   `json:"payload"`
}

func newEncodeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "encode <secret>",
		Short:       "Show the octal tokens and digit pairs for a secret",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := args[0]
			enc, err := mncodec.Encode(secret)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, encodeOutput{Secret: secret, Tokens: enc.Tokens, Pairs: enc.Pairs, Payload: enc.Payload()})
			}

			chars := []rune(secret)
			rows := make([][]string, 0, len(enc.Tokens))
			for i, token := range enc.Tokens {
				label := "ETX"
				if i < len(chars) {
					label = strconv.QuoteRune(chars[i])
				}
				rows = append(rows, []string{label, token, enc.Pairs[i]})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Char", "Octal", "Pair"}, rows, []columnAlignment{alignLeft, alignRight, alignRight}))
			fmt.Fprintf(out, "Payload: %s (%d digits)\n", enc.Payload(), len(enc.Payload()))
			return nil
		},
	}
}

type mnCell struct {
	M      int      `json:"m"`
	N      int      `json:"n"`
	Tokens []string `json:"tokens"`
}

func newMNTableCommand(ctx *commandContext) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:         "mntable",
		Short:       "Print the M/N lookup table for ASCII code points",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := mncodec.BuildTable()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch csvPath {
			case "":
			case "-":
				return table.WriteCSV(out)
			default:
				file, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				if err := table.WriteCSV(file); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close csv: %w", err)
				}
				if !ctx.jsonOutput() {
					fmt.Fprintf(out, "Wrote M/N table to %s\n", csvPath)
					return nil
				}
			}

			var cells []mnCell
			for m := 0; m < mncodec.Modulus; m++ {
				for n := 0; n < mncodec.Modulus; n++ {
					if tokens := table.Lookup(m, n); len(tokens) > 0 {
						cells = append(cells, mnCell{M: m, N: n, Tokens: tokens})
					}
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, cells)
			}
			rows := make([][]string, 0, len(cells))
			for _, cell := range cells {
				rows = append(rows, []string{strconv.Itoa(cell.M), strconv.Itoa(cell.N), fmt.Sprint(cell.Tokens)})
			}
			fmt.Fprintln(out, renderTable([]string{"M", "N", "Octal tokens"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
			fmt.Fprintf(out, "%d cells used, %d with collisions\n", len(cells), table.Collisions())
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Write the full table as CSV to this path (- for stdout)")
	return cmd
}
