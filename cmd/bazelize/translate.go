// Package main implements the bazelize CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bazelize/internal/config"
	"bazelize/internal/diagfmt"
	"bazelize/internal/driver"
)

var translateCmd = &cobra.Command{
	Use:   "translate [flags] [path]",
	Short: "Translate CMake scripts into Bazel BUILD files",
	Long: `Translate reads a CMakeLists.txt (or the one in the given directory),
follows add_subdirectory() calls, and writes a BUILD.bazel file next to every
translated script.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranslate,
}

func init() {
	translateCmd.Flags().String("config", "", "path to bazelize.toml (default: nearest one upward from the script)")
	translateCmd.Flags().Bool("strict", false, "report unresolved variable references")
	translateCmd.Flags().Bool("fail-fast", false, "stop at the first error")
	translateCmd.Flags().Bool("stdout", false, "print generated output instead of writing files")
	translateCmd.Flags().Bool("dry-run", false, "translate without writing any files")
	translateCmd.Flags().Bool("no-cache", false, "disable the on-disk translation cache")
	translateCmd.Flags().String("diag-format", "pretty", "diagnostics format (pretty|json)")
	translateCmd.Flags().Bool("all", false, "translate every CMakeLists.txt under the directory, not just the root one")
	translateCmd.Flags().Int("jobs", 0, "max parallel workers with --all (0=auto)")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if all {
		return runTranslateAll(cmd, args)
	}

	scriptPath, err := resolveScriptPath(args)
	if err != nil {
		return err
	}

	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	diagFormat, err := cmd.Flags().GetString("diag-format")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	opts, err := translateOptionsFromFlags(cmd, filepath.Dir(scriptPath))
	if err != nil {
		return err
	}

	result, err := driver.Translate(scriptPath, opts)
	if result != nil && result.HasDiagnostics() {
		if printErr := printDiagnostics(cmd, result, diagFormat); printErr != nil {
			return printErr
		}
	}
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	if translateErr := result.Err(); translateErr != nil {
		return translateErr
	}

	if toStdout {
		return printResults(result, quiet)
	}
	if dryRun {
		return nil
	}
	return writeResults(result, quiet)
}

// runTranslateAll translates every script under the root independently, in
// parallel. add_subdirectory() children are still handled by their parents;
// the walk only adds trees no parent reaches.
func runTranslateAll(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 && args[0] != "" {
		root = args[0]
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("--all expects a directory, got %s", root)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	diagFormat, err := cmd.Flags().GetString("diag-format")
	if err != nil {
		return err
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	opts, err := translateOptionsFromFlags(cmd, root)
	if err != nil {
		return err
	}

	paths, err := driver.FindScripts(root)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s found under %s", driver.ScriptName, root)
	}

	results, err := driver.TranslateMany(cmd.Context(), paths, jobs, opts)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	var firstErr error
	for _, result := range results {
		if result.HasDiagnostics() {
			if printErr := printDiagnostics(cmd, result, diagFormat); printErr != nil {
				return printErr
			}
		}
		if translateErr := result.Err(); translateErr != nil {
			if firstErr == nil {
				firstErr = translateErr
			}
			continue
		}
		switch {
		case toStdout:
			err = printResults(result, quiet)
		case dryRun:
			err = nil
		default:
			err = writeResults(result, quiet)
		}
		if err != nil {
			return err
		}
	}
	return firstErr
}

// translateOptionsFromFlags собирает общие опции трансляции из флагов команды
func translateOptionsFromFlags(cmd *cobra.Command, scriptDir string) (driver.TranslateOptions, error) {
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return driver.TranslateOptions{}, err
	}
	failFast, err := cmd.Flags().GetBool("fail-fast")
	if err != nil {
		return driver.TranslateOptions{}, err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return driver.TranslateOptions{}, err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return driver.TranslateOptions{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.TranslateOptions{}, err
	}

	overrides, configDigest, err := loadTranslateConfig(configPath, scriptDir)
	if err != nil {
		return driver.TranslateOptions{}, err
	}

	opts := driver.TranslateOptions{
		Config:         overrides,
		ConfigDigest:   configDigest,
		Strict:         strict,
		FailFast:       failFast,
		MaxDiagnostics: maxDiagnostics,
	}
	if !noCache {
		if cache, cacheErr := driver.OpenDiskCache("bazelize"); cacheErr == nil {
			opts.Cache = cache
		}
	}
	return opts, nil
}

// resolveScriptPath принимает файл или директорию и возвращает путь к скрипту
func resolveScriptPath(args []string) (string, error) {
	path := "."
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat path: %w", err)
	}
	if info.IsDir() {
		path = filepath.Join(path, driver.ScriptName)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("no %s in directory: %w", driver.ScriptName, err)
		}
	}
	return path, nil
}

// loadTranslateConfig loads overrides either from an explicit path or by
// walking upward from the script's directory. The digest of the file bytes
// keys the cache so a config edit invalidates prior output.
func loadTranslateConfig(explicit, scriptDir string) (*config.Overrides, driver.Digest, error) {
	var (
		overrides *config.Overrides
		path      string
		err       error
	)
	if explicit != "" {
		overrides, err = config.Load(explicit)
		path = explicit
	} else {
		overrides, path, err = config.LoadNear(scriptDir)
	}
	if err != nil {
		return nil, driver.Digest{}, err
	}
	var digest driver.Digest
	if path != "" {
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, driver.Digest{}, readErr
		}
		digest = driver.DigestOf(content)
	}
	return overrides, digest, nil
}

func printDiagnostics(cmd *cobra.Command, result *driver.TranslateResult, format string) error {
	switch format {
	case "pretty":
		opts := diagfmt.PrettyOpts{
			Color:     useColorOn(cmd, os.Stderr),
			ShowNotes: true,
		}
		return forEachResult(result, func(r *driver.TranslateResult) error {
			if r.Bag.Len() > 0 {
				diagfmt.Pretty(os.Stderr, r.Bag, r.FileSet, opts)
			}
			return nil
		})
	case "json":
		return forEachResult(result, func(r *driver.TranslateResult) error {
			if r.Bag.Len() == 0 {
				return nil
			}
			return diagfmt.JSON(os.Stderr, r.Bag, r.FileSet)
		})
	default:
		return fmt.Errorf("unknown diagnostics format: %s", format)
	}
}

func printResults(result *driver.TranslateResult, quiet bool) error {
	return forEachResult(result, func(r *driver.TranslateResult) error {
		if !quiet {
			if _, err := fmt.Fprintf(os.Stdout, "== %s ==\n", r.Path); err != nil {
				return err
			}
		}
		_, err := fmt.Fprint(os.Stdout, r.Output)
		return err
	})
}

func writeResults(result *driver.TranslateResult, quiet bool) error {
	return forEachResult(result, func(r *driver.TranslateResult) error {
		outPath := filepath.Join(r.Dir, driver.OutputName)
		if err := os.WriteFile(outPath, []byte(r.Output), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		if !quiet {
			note := ""
			if r.Cached {
				note = " (cached)"
			}
			if _, err := fmt.Fprintf(os.Stdout, "wrote %s%s\n", outPath, note); err != nil {
				return err
			}
		}
		return nil
	})
}

// forEachResult обходит результат и всех его потомков в порядке объявления
func forEachResult(r *driver.TranslateResult, fn func(*driver.TranslateResult) error) error {
	if err := fn(r); err != nil {
		return err
	}
	for _, child := range r.Children {
		if err := forEachResult(child, fn); err != nil {
			return err
		}
	}
	return nil
}
