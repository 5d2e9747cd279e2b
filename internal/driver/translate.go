package driver

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"bazelize/internal/bazelgen"
	"bazelize/internal/config"
	"bazelize/internal/diag"
	"bazelize/internal/eval"
	"bazelize/internal/lexer"
	"bazelize/internal/model"
	"bazelize/internal/parser"
	"bazelize/internal/source"
)

// ScriptName is the build script looked for in each translated directory.
const ScriptName = "CMakeLists.txt"

// OutputName is the rule file written next to each translated script.
const OutputName = "BUILD.bazel"

// maxSubdirDepth caps add_subdirectory recursion; a deeper chain is a cycle.
const maxSubdirDepth = 32

// TranslateOptions configures one translation.
type TranslateOptions struct {
	// Config supplies the override tables; nil means empty defaults.
	Config *config.Overrides
	// ConfigDigest keys the cache alongside the source hash; pass the hash
	// of the configuration file bytes, or zero when running on defaults.
	ConfigDigest Digest
	// Strict reports unresolved variable references.
	Strict bool
	// FailFast aborts on the first error diagnostic.
	FailFast bool
	// MaxDiagnostics bounds each run's bag.
	MaxDiagnostics int
	// Cache holds generated output across runs; nil disables caching.
	Cache *DiskCache

	// seed and depth thread parent state through subdirectory recursion.
	seed    map[string][]string
	rootDir string
	depth   int
}

// TranslateResult is one translated script plus its subdirectory children.
type TranslateResult struct {
	Path    string
	Dir     string
	Output  string
	Cached  bool
	Bag     *diag.Bag
	FileSet *source.FileSet

	Children []*TranslateResult

	// fatal records a phase failure (parse, abort, finalize, generate).
	// Recoverable diagnostics stay in the bag and do not stop output.
	fatal error
}

// Err returns a non-nil error when a fatal phase failed for this run or a
// child. Recoverable diagnostics (unsupported commands, strict-mode
// warnings) accumulate in the bag without failing the run; output is still
// generated for them.
func (r *TranslateResult) Err() error {
	if r.fatal != nil {
		return r.fatal
	}
	for _, child := range r.Children {
		if err := child.Err(); err != nil {
			return err
		}
	}
	return nil
}

// HasDiagnostics reports whether this run or any child produced diagnostics.
func (r *TranslateResult) HasDiagnostics() bool {
	if r.Bag.Len() > 0 {
		return true
	}
	for _, child := range r.Children {
		if child.HasDiagnostics() {
			return true
		}
	}
	return false
}

// Translate runs the full pipeline on one script: lex, parse, evaluate,
// finalize, generate, then recurse into subdirectory requests. Lex and parse
// hard errors and finalization errors abort the file; everything else lands
// in the bag.
func Translate(path string, opts TranslateOptions) (*TranslateResult, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("driver: load %s: %w", path, err)
	}
	file := fs.Get(fileID)
	dir := filepath.Dir(path)
	if opts.rootDir == "" {
		opts.rootDir = dir
	}

	bag := diag.NewBag(clampMax(opts.MaxDiagnostics))
	result := &TranslateResult{Path: path, Dir: dir, Bag: bag, FileSet: fs}

	key := cacheKey(file, &opts)
	var payload DiskPayload
	if hit, cacheErr := opts.Cache.Get(key, &payload); cacheErr == nil && hit {
		result.Output = payload.Output
		result.Cached = true
		return result, nil
	}

	rep := &diag.BagReporter{Bag: bag}
	lx := lexer.New(file, lexer.Options{Reporter: rep})
	tree, parseErr := parser.ParseFile(file, lx, parser.Options{Reporter: rep})
	if parseErr != nil {
		bag.Sort()
		result.fatal = fmt.Errorf("driver: %s: %w", path, parseErr)
		return result, result.fatal
	}

	ev := eval.New(eval.Options{
		Reporter:  rep,
		Overrides: opts.Config,
		Strict:    opts.Strict,
		FailFast:  opts.FailFast,
		SourceDir: dir,
		RootDir:   opts.rootDir,
		Seed:      opts.seed,
	})
	if runErr := ev.Run(tree); runErr != nil {
		bag.Sort()
		result.fatal = fmt.Errorf("driver: %s: %w", path, runErr)
		return result, result.fatal
	}

	m := ev.Model()
	if finErr := m.Finalize(opts.Config.IsExternal); finErr != nil {
		reportFinalize(rep, m, finErr)
		bag.Sort()
		result.fatal = fmt.Errorf("driver: %s: %w", path, finErr)
		return result, result.fatal
	}

	out, genErr := bazelgen.Generate(m, opts.Config, rep)
	if genErr != nil {
		bag.Sort()
		result.fatal = fmt.Errorf("driver: %s: %w", path, genErr)
		return result, result.fatal
	}
	result.Output = out

	if err := translateChildren(result, m, &opts); err != nil {
		bag.Sort()
		return result, err
	}
	bag.Sort()

	if opts.Cache != nil && bag.Len() == 0 && len(m.Subdirs) == 0 {
		// Tolerate cache write failures; the translation already succeeded.
		_ = opts.Cache.Put(key, &DiskPayload{
			Schema:  diskCacheSchemaVersion,
			Path:    path,
			Project: m.Project,
			Output:  out,
		})
	}
	return result, nil
}

// translateChildren runs each add_subdirectory request as an independent
// child translation seeded with the parent's variable snapshot. A missing
// child script is reported on the parent and skipped.
func translateChildren(parent *TranslateResult, m *model.Model, opts *TranslateOptions) error {
	for _, sub := range m.Subdirs {
		childPath := filepath.Join(parent.Dir, sub.Dir, ScriptName)
		if opts.depth >= maxSubdirDepth {
			parent.Bag.Add(diag.NewError(diag.IOLoadFileError, sub.Span,
				fmt.Sprintf("subdirectory nesting exceeds %d levels at %q", maxSubdirDepth, sub.Dir)))
			continue
		}
		if _, err := os.Stat(childPath); err != nil {
			parent.Bag.Add(diag.NewWarning(diag.IOLoadFileError, sub.Span,
				fmt.Sprintf("add_subdirectory(%s): no %s found", sub.Dir, ScriptName)))
			continue
		}
		childOpts := *opts
		childOpts.seed = sub.Snapshot
		childOpts.depth = opts.depth + 1
		child, err := Translate(childPath, childOpts)
		if child != nil {
			parent.Children = append(parent.Children, child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// reportFinalize converts finalization errors into positioned diagnostics.
func reportFinalize(rep diag.Reporter, m *model.Model, err error) {
	switch e := err.(type) {
	case *model.UnknownDependencyError:
		rep.Report(diag.ModelUnknownDependency, diag.SevError, e.Span, e.Error(),
			[]diag.Note{{Msg: "declare the target, or map the name in [external_libraries]"}})
	case *model.CyclicDependencyError:
		sp := source.Span{}
		if len(e.Cycle) > 0 {
			if t, ok := m.Lookup(e.Cycle[0]); ok {
				sp = t.Span
			}
		}
		rep.Report(diag.ModelCyclicDependency, diag.SevError, sp, e.Error(), nil)
	default:
		rep.Report(diag.ModelUnknownDependency, diag.SevError, source.Span{}, err.Error(), nil)
	}
}

// cacheKey digests everything that affects the generated output.
func cacheKey(file *source.File, opts *TranslateOptions) Digest {
	h := sha256.New()
	h.Write(file.Hash[:])
	h.Write(opts.ConfigDigest[:])
	var flags byte
	if opts.Strict {
		flags |= 1
	}
	if opts.FailFast {
		flags |= 2
	}
	h.Write([]byte{flags, byte(diskCacheSchemaVersion), byte(diskCacheSchemaVersion >> 8)})
	var key Digest
	copy(key[:], h.Sum(nil))
	return key
}

// DigestOf hashes configuration file bytes for cache keying.
func DigestOf(content []byte) Digest {
	return sha256.Sum256(content)
}
