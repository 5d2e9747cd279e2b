package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bazelize/internal/diagfmt"
	"bazelize/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] CMakeLists.txt",
	Short: "Parse a CMake script and output its command tree",
	Long:  `Parse analyzes a CMake script and outputs the command tree the evaluator would walk`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	result, parseErr := driver.Parse(filePath, maxDiagnostics)
	if result != nil && (result.Bag.HasErrors() || result.Bag.HasWarnings()) {
		opts := diagfmt.PrettyOpts{
			Color:     useColorOn(cmd, os.Stderr),
			ShowNotes: true,
		}
		diagfmt.Pretty(os.Stderr, result.Bag, result.FileSet, opts)
	}
	if parseErr != nil {
		return fmt.Errorf("parsing failed: %w", parseErr)
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTreePretty(os.Stdout, result.Tree, result.FileSet)
	case "json":
		return diagfmt.FormatTreeJSON(os.Stdout, result.Tree)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
