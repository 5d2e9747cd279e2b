package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bazelize/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a starter bazelize.toml",
	Long: `Initialize writes a commented bazelize.toml next to your CMakeLists.txt.
If [path] is omitted, the current directory is used. If a non-existing path is
provided, the directory will be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit writes a starter configuration file at the target directory. It
// refuses to overwrite an existing bazelize.toml.
func runInit(cmd *cobra.Command, args []string) error {
	// Resolve target directory
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	// Ensure directory exists
	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	configPath := filepath.Join(target, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("already configured: %s exists", configPath)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTOML()), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err2 := filepath.Rel(wd, target); err2 == nil {
			rel = r
		}
	}
	fmt.Fprintf(os.Stdout, "Initialized bazelize config in %s\n", rel)
	fmt.Fprintf(os.Stdout, "  - %s\n", config.FileName)
	return nil
}

// defaultConfigTOML returns the starter configuration with every override
// table present but commented out.
func defaultConfigTOML() string {
	return `# bazelize configuration

# Targets to leave out of the generated BUILD files. Dependency edges onto
# excluded targets are dropped with a warning.
excluded_targets = []

# Map CMake target names to external Bazel labels.
# [external_libraries]
# pthread = "@system//:pthread"
# ZLIB = "@zlib//:zlib"

# Extra deps to splice into specific targets.
# [additional_dependencies]
# my_app = ["//third_party:extra"]

# Teach bazelize about project-specific commands.
# [mappings.my_custom_library]
# rule_kind = "cc_library"
# [mappings.my_custom_library.attributes]
# srcs = "srcs"
`
}
