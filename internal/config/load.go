package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up next to the build scripts.
const FileName = "bazelize.toml"

// ErrNotFound is returned by Find when no configuration file exists between
// the start directory and the filesystem root.
var ErrNotFound = errors.New("config: no " + FileName + " found")

// Load reads and validates a configuration file.
func Load(path string) (*Overrides, error) {
	var o Overrides
	meta, err := toml.DecodeFile(path, &o)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	return &o, nil
}

// Find walks from dir upward to the filesystem root looking for FileName.
// It returns the absolute path of the first match.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	for {
		candidate := filepath.Join(abs, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotFound
		}
		abs = parent
	}
}

// LoadNear finds and loads the configuration governing dir. When no file is
// found the empty default is returned.
func LoadNear(dir string) (*Overrides, string, error) {
	path, err := Find(dir)
	if errors.Is(err, ErrNotFound) {
		return Default(), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	o, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return o, path, nil
}
