package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/parsers"
)

func newParseCmd() *cobra.Command {
	var source string

	c := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse copied position text and print the trade as JSON",
		Long: `Reads text copied from a trading platform from the file argument, or from
stdin when no file is given, and prints the parsed trade fields.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				r = f
			}
			text, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if strings.TrimSpace(string(text)) == "" {
				return fmt.Errorf("no text to parse")
			}

			if source == "" {
				source = config.Cfg.DefaultParserSource
			}
			parser, err := parsers.GetParser(source)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(parser.Parse(string(text)))
		},
	}

	c.Flags().StringVarP(&source, "source", "s", "", fmt.Sprintf("platform the text was copied from (%s)", strings.Join(parsers.Sources(), ", ")))
	return c
}
