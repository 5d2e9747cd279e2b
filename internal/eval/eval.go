// Package eval walks the command tree in a single depth-first pass, expanding
// arguments through the variable engine, evaluating conditionals, unrolling
// loops, invoking user procedures, and dispatching built-in commands that
// mutate the build model. One Evaluator owns one run; evaluators are never
// shared across goroutines.
package eval

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"bazelize/internal/ast"
	"bazelize/internal/config"
	"bazelize/internal/diag"
	"bazelize/internal/model"
	"bazelize/internal/scope"
	"bazelize/internal/source"
)

// ErrAborted is returned by Run when fail-fast mode stops evaluation on the
// first error, or when the script itself demands a fatal stop.
var ErrAborted = errors.New("evaluation aborted")

// maxCallDepth bounds procedure recursion; scripts are configuration, not
// general programs, so a runaway recursion is always a bug in the input.
const maxCallDepth = 128

// Options configures one evaluation run.
type Options struct {
	// Reporter receives every diagnostic. Defaults to NopReporter.
	Reporter diag.Reporter
	// Overrides supplies the command mapping table consulted for unknown
	// commands. May be nil.
	Overrides *config.Overrides
	// Strict reports unresolved variable references instead of silently
	// expanding them to empty.
	Strict bool
	// FailFast aborts the run on the first error-severity diagnostic.
	FailFast bool
	// SourceDir seeds CMAKE_CURRENT_SOURCE_DIR; empty means ".".
	SourceDir string
	// RootDir seeds CMAKE_SOURCE_DIR; empty means SourceDir.
	RootDir string
	// Seed pre-populates the global frame, used when a subdirectory run
	// inherits a snapshot of its parent's variables.
	Seed map[string][]string
}

// procedure is one user-defined function or macro. The table is last-wins:
// redefining a name silently replaces the previous body.
type procedure struct {
	name   string // original spelling, for messages
	kind   ast.ProcKind
	params []string
	body   []ast.Node
	span   source.Span
}

// ctrl communicates break/continue/return out of nested bodies.
type ctrl uint8

const (
	ctrlNone ctrl = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

// Evaluator executes one command tree against one build model.
type Evaluator struct {
	opts  Options
	rep   diag.Reporter
	scope *scope.Stack
	mdl   *model.Model
	procs map[string]procedure

	// aliases maps add_library(... ALIAS real) names onto their real target.
	aliases map[string]string

	loopDepth int
	callDepth int
	halted    bool
	fatal     error
}

// New creates an evaluator with a fresh scope stack and build model.
func New(opts Options) *Evaluator {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	ev := &Evaluator{
		opts:    opts,
		rep:     opts.Reporter,
		scope:   scope.NewStack(),
		mdl:     model.New(),
		procs:   make(map[string]procedure),
		aliases: make(map[string]string),
	}
	ev.seedVariables()
	return ev
}

// Model returns the build model accumulated so far. Callers finalize it
// after Run.
func (ev *Evaluator) Model() *model.Model {
	return ev.mdl
}

// Snapshot exposes the current variable state for seeding subdirectory runs.
func (ev *Evaluator) Snapshot() map[string][]string {
	return ev.scope.Snapshot()
}

// Run evaluates one parsed file. Recoverable problems accumulate through the
// reporter; Run errors only when evaluation cannot meaningfully continue.
func (ev *Evaluator) Run(file *ast.File) error {
	_, err := ev.evalNodes(file.Nodes)
	if err != nil {
		return err
	}
	if ev.halted {
		return ev.fatal
	}
	return nil
}

// seedVariables installs the built-in variables every run starts with.
func (ev *Evaluator) seedVariables() {
	srcDir := ev.opts.SourceDir
	if srcDir == "" {
		srcDir = "."
	}
	rootDir := ev.opts.RootDir
	if rootDir == "" {
		rootDir = srcDir
	}
	defaults := map[string]string{
		"CMAKE_CURRENT_SOURCE_DIR": srcDir,
		"CMAKE_CURRENT_BINARY_DIR": srcDir,
		"CMAKE_SOURCE_DIR":         rootDir,
		"CMAKE_BINARY_DIR":         rootDir,
		"PROJECT_SOURCE_DIR":       rootDir,
		"PROJECT_BINARY_DIR":       rootDir,
		"CMAKE_SYSTEM_NAME":        "Linux",
		"CMAKE_SYSTEM_VERSION":     "1.0",
		"CMAKE_SYSTEM_PROCESSOR":   "x86_64",
		"CMAKE_CXX_COMPILER_ID":    "GNU",
		"CMAKE_C_COMPILER_ID":      "GNU",
		"CMAKE_BUILD_TYPE":         "Release",
		"CMAKE_INSTALL_PREFIX":     "/usr/local",
	}
	for name, value := range defaults {
		ev.scope.Set(name, []string{value}, scope.Global)
	}
	ev.scope.Seed(ev.opts.Seed)
	// The inherited snapshot carries the parent's location; the current
	// directory pair must always describe this run's own directory.
	ev.scope.Set("CMAKE_CURRENT_SOURCE_DIR", []string{srcDir}, scope.Global)
	ev.scope.Set("CMAKE_CURRENT_BINARY_DIR", []string{srcDir}, scope.Global)
}

// reportf emits a diagnostic; under fail-fast an error-severity report halts
// the run.
func (ev *Evaluator) reportf(code diag.Code, sev diag.Severity, sp source.Span, format string, args ...any) {
	ev.report(code, sev, sp, fmt.Sprintf(format, args...), nil)
}

func (ev *Evaluator) report(code diag.Code, sev diag.Severity, sp source.Span, msg string, notes []diag.Note) {
	ev.rep.Report(code, sev, sp, msg, notes)
	if sev == diag.SevError && ev.opts.FailFast && !ev.halted {
		ev.halted = true
		ev.fatal = fmt.Errorf("%w: %s", ErrAborted, msg)
	}
}

func (ev *Evaluator) evalNodes(nodes []ast.Node) (ctrl, error) {
	for i := range nodes {
		if ev.halted {
			return ctrlNone, ev.fatal
		}
		c, err := ev.evalNode(&nodes[i])
		if err != nil {
			return ctrlNone, err
		}
		if c != ctrlNone {
			return c, nil
		}
	}
	return ctrlNone, nil
}

func (ev *Evaluator) evalNode(n *ast.Node) (ctrl, error) {
	switch n.Kind {
	case ast.KindInvocation:
		return ev.evalInvocation(n)
	case ast.KindConditional:
		return ev.evalConditional(n)
	case ast.KindLoop:
		return ev.evalLoop(n)
	case ast.KindProcedureDef:
		ev.procs[strings.ToLower(n.Name)] = procedure{
			name:   n.Name,
			kind:   n.Proc,
			params: n.Params,
			body:   n.Body,
			span:   n.Span,
		}
		return ctrlNone, nil
	}
	return ctrlNone, nil
}

// evalInvocation dispatches one command through the ordered lookup chain:
// built-ins, then user procedures, then override-mapped commands.
func (ev *Evaluator) evalInvocation(n *ast.Node) (ctrl, error) {
	name := strings.ToLower(n.Name)

	switch name {
	case "break", "continue":
		if ev.loopDepth == 0 {
			ev.reportf(diag.EvalBadCommandArity, diag.SevWarning, n.Span,
				"%s() outside a loop is ignored", name)
			return ctrlNone, nil
		}
		if name == "break" {
			return ctrlBreak, nil
		}
		return ctrlContinue, nil
	case "return":
		return ctrlReturn, nil
	}

	args := ev.expandArgs(n.Args)

	if fn, ok := builtins[name]; ok {
		return ctrlNone, fn(ev, n, args)
	}
	if proc, ok := ev.procs[name]; ok {
		return ev.invoke(proc, n, args)
	}
	if ev.opts.Overrides != nil {
		if _, ok := ev.opts.Overrides.MappingFor(name); ok {
			return ctrlNone, ev.customCommand(n, args)
		}
	}
	ev.report(diag.EvalUnsupportedCommand, diag.SevError, n.Span,
		fmt.Sprintf("unsupported command %q", n.Name),
		[]diag.Note{{Span: n.Span, Msg: "add a [mappings] entry to the configuration to translate it"}})
	return ctrlNone, nil
}

// invoke calls a user procedure. Functions get a fresh frame whose parent is
// the global frame; macros run directly in the caller's frame. Positional
// parameters bind by name; ARGC, ARGV, ARGVn, and ARGN describe the call.
func (ev *Evaluator) invoke(proc procedure, n *ast.Node, args []arg) (ctrl, error) {
	if len(args) < len(proc.params) {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"%s %q expects at least %d argument(s), got %d",
			proc.kind, proc.name, len(proc.params), len(args))
		return ctrlNone, nil
	}
	if ev.callDepth >= maxCallDepth {
		ev.reportf(diag.EvalRecursionLimit, diag.SevError, n.Span,
			"%s %q exceeds the call depth limit (%d)", proc.kind, proc.name, maxCallDepth)
		return ctrlNone, nil
	}

	values := texts(args)
	if proc.kind == ast.ProcMacro {
		ev.scope.PushMacroFrame()
	} else {
		ev.scope.PushFunctionFrame()
	}
	defer ev.scope.PopFrame()

	for i, param := range proc.params {
		ev.scope.Set(param, []string{values[i]}, scope.Current)
	}
	ev.scope.Set("ARGC", []string{strconv.Itoa(len(values))}, scope.Current)
	ev.scope.Set("ARGV", values, scope.Current)
	for i, v := range values {
		ev.scope.Set("ARGV"+strconv.Itoa(i), []string{v}, scope.Current)
	}
	ev.scope.Set("ARGN", values[len(proc.params):], scope.Current)

	ev.callDepth++
	savedLoop := ev.loopDepth
	ev.loopDepth = 0
	c, err := ev.evalNodes(proc.body)
	ev.loopDepth = savedLoop
	ev.callDepth--
	if err != nil {
		return ctrlNone, err
	}
	// return() inside the body ends the procedure, not the caller.
	_ = c
	return ctrlNone, nil
}

func (ev *Evaluator) evalConditional(n *ast.Node) (ctrl, error) {
	for i := range n.Branches {
		br := &n.Branches[i]
		if ev.evalCondition(br.Cond, br.Span) {
			return ev.evalNodes(br.Body)
		}
		if ev.halted {
			return ctrlNone, ev.fatal
		}
	}
	if n.Else != nil {
		return ev.evalNodes(n.Else)
	}
	return ctrlNone, nil
}

// evalLoop unrolls a foreach. The binding variable lives in the current
// frame: loops introduce no scope, so values set in the body persist after
// the loop, and the binding keeps its final value.
func (ev *Evaluator) evalLoop(n *ast.Node) (ctrl, error) {
	items := ev.loopItems(n)
	ev.loopDepth++
	defer func() { ev.loopDepth-- }()
	for _, item := range items {
		ev.scope.Set(n.Binding, []string{item}, scope.Current)
		c, err := ev.evalNodes(n.Body)
		if err != nil {
			return ctrlNone, err
		}
		switch c {
		case ctrlBreak:
			return ctrlNone, nil
		case ctrlReturn:
			return ctrlReturn, nil
		}
		// ctrlContinue and ctrlNone both advance to the next item.
	}
	return ctrlNone, nil
}

// loopItems expands the foreach header into the iteration list, handling the
// RANGE and IN LISTS/ITEMS forms.
func (ev *Evaluator) loopItems(n *ast.Node) []string {
	header := texts(ev.expandArgs(n.Header))
	if len(header) == 0 {
		return nil
	}
	switch header[0] {
	case "RANGE":
		return ev.rangeItems(header[1:], n.Span)
	case "IN":
		var items []string
		mode := ""
		for _, word := range header[1:] {
			switch word {
			case "LISTS", "ITEMS":
				mode = word
			default:
				switch mode {
				case "LISTS":
					if value, ok := ev.scope.Resolve(word); ok {
						items = append(items, value...)
					} else {
						ev.unresolved(word, n.Span)
					}
				case "ITEMS":
					items = append(items, word)
				default:
					ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
						"foreach(IN ...) expects LISTS or ITEMS, got %q", word)
					return nil
				}
			}
		}
		return items
	}
	return header
}

// rangeItems implements foreach(v RANGE stop | start stop [step]); the stop
// bound is inclusive.
func (ev *Evaluator) rangeItems(bounds []string, sp source.Span) []string {
	nums := make([]int, 0, 3)
	for _, b := range bounds {
		v, err := strconv.Atoi(b)
		if err != nil {
			ev.reportf(diag.EvalBadCommandArity, diag.SevError, sp,
				"foreach RANGE bound %q is not an integer", b)
			return nil
		}
		nums = append(nums, v)
	}
	start, stop, step := 0, 0, 1
	switch len(nums) {
	case 1:
		stop = nums[0]
	case 2:
		start, stop = nums[0], nums[1]
	case 3:
		start, stop, step = nums[0], nums[1], nums[2]
	default:
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, sp,
			"foreach RANGE takes 1 to 3 bounds, got %d", len(nums))
		return nil
	}
	if step <= 0 || stop < start {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, sp,
			"foreach RANGE %d %d %d does not terminate", start, stop, step)
		return nil
	}
	var items []string
	for i := start; i <= stop; i += step {
		items = append(items, strconv.Itoa(i))
	}
	return items
}

// lookupTarget resolves a target name through the alias table.
func (ev *Evaluator) lookupTarget(name string) (*model.Target, bool) {
	if real, ok := ev.aliases[name]; ok {
		name = real
	}
	return ev.mdl.Lookup(name)
}
