package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FindScripts walks root and returns every build script under it, sorted by
// the walk order. Hidden directories and the usual build output directories
// are skipped.
func FindScripts(root string) ([]string, error) {
	var scripts []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (name == "build" || name == ".git" || name[0] == '.') {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ScriptName {
			scripts = append(scripts, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scripts, nil
}

// TranslateMany translates independent root scripts in parallel, one worker
// per script. Each run owns its own scope engine, procedure table, and build
// model; nothing is shared but the read-only configuration. Results align
// with paths by index; a failed run leaves its partial result in place and
// the first error aborts outstanding work through the context.
func TranslateMany(ctx context.Context, paths []string, jobs int, opts TranslateOptions) ([]*TranslateResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]*TranslateResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := Translate(path, opts)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
