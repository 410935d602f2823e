package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/domicilios-tipovia/internal/flatfile"
	"github.com/domicilios-tipovia/internal/normalize"
	"github.com/domicilios-tipovia/internal/pipeline"
)

// createFileCmd creates the flat-file command
func createFileCmd() *cobra.Command {
	var (
		opts = flatfile.Options{
			Encoding:         flatfile.DefaultEncoding,
			FallbackEncoding: flatfile.DefaultFallbackEncoding,
		}
		sep string
	)

	cmd := &cobra.Command{
		Use:   "file",
		Short: "Normalize street types in a delimited file",
		Long: `Reads a delimited file holding a street type and a street name column
(recognised by header aliases), and writes a fully quoted UTF-8 copy with
both columns normalized. Other columns pass through unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			comma, err := parseSeparator(sep)
			if err != nil {
				return err
			}
			opts.Comma = comma
			opts.Preview = cfg.Run.PreviewLimit

			res, err := flatfile.Process(normalize.NewPlanner(normalize.DefaultRules()), opts, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlans(out, res.Preview)
			printFileSummary(out, res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Input, "input", "i", "", "input file")
	f.StringVarP(&opts.Output, "output", "o", "", "output file (default <input>_limpio_<timestamp>.csv)")
	f.StringVar(&sep, "sep", ",", `field separator, a single character or "tab"`)
	f.StringVar(&opts.Encoding, "encoding", opts.Encoding, "input encoding")
	f.StringVar(&opts.FallbackEncoding, "fallback-encoding", opts.FallbackEncoding, "encoding tried once if the input is not valid in --encoding")
	f.IntVar(&cfg.Run.PreviewLimit, "preview", cfg.Run.PreviewLimit, "number of leading rows to show, changed or not")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// parseSeparator accepts one character, or "tab" / `\t`
func parseSeparator(sep string) (rune, error) {
	switch sep {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(sep) != 1 {
		return 0, fmt.Errorf("%w: separator must be a single character, got %q", pipeline.ErrValidation, sep)
	}
	r, _ := utf8.DecodeRuneInString(sep)
	return r, nil
}
