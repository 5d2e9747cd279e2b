package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bazelize/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the bazelize translation cache",
	Long:  "Remove the on-disk cache of generated BUILD files.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("bazelize")
	if err != nil {
		return fmt.Errorf("failed to locate cache: %w", err)
	}
	dir := cache.Dir()
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintf(os.Stdout, "cache directory not found\n")
			return nil
		}
		return fmt.Errorf("failed to stat %q: %w", dir, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", dir, err)
	}
	_, _ = fmt.Fprintf(os.Stdout, "removed %s\n", dir)
	return nil
}
