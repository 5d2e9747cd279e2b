package eval

import (
	"path/filepath"
	"strconv"
	"strings"

	"bazelize/internal/ast"
	"bazelize/internal/diag"
	"bazelize/internal/model"
	"bazelize/internal/scope"
	"bazelize/internal/source"
)

// builtinFn mutates the build model or the variable engine for one built-in
// command. Arguments arrive fully expanded.
type builtinFn func(ev *Evaluator, n *ast.Node, args []arg) error

// builtins is the first table of the dispatch chain. Keys are lower-case;
// command names match case-insensitively.
var builtins map[string]builtinFn

func init() {
	// Filled in init: the COMMAND condition predicate consults the table, so
	// a literal initializer would tie the package into a reference knot.
	builtins = map[string]builtinFn{
		"cmake_minimum_required": builtinMinimumRequired,
		"project":                builtinProject,
		"set":                    builtinSet,
		"unset":                  builtinUnset,
		"option":                 builtinOption,
		"message":                builtinMessage,
		"list":                   builtinList,
		"include_directories":    builtinIncludeDirectories,
		"add_definitions":        builtinAddDefinitions,
		"add_executable":         builtinAddExecutable,
		"add_library":            builtinAddLibrary,
		"add_test":               builtinAddTest,
		"add_custom_command":     builtinAddCustomCommand,
		"add_custom_target":      builtinAddCustomTarget,
		"source_group":           builtinSourceGroup,
		"target_sources":         builtinTargetSources,
		"target_link_libraries":  builtinTargetLinkLibraries,
		"target_include_directories": func(ev *Evaluator, n *ast.Node, args []arg) error {
			return targetAttrCommand(ev, n, args, attrIncludes)
		},
		"target_compile_definitions": func(ev *Evaluator, n *ast.Node, args []arg) error {
			return targetAttrCommand(ev, n, args, attrDefines)
		},
		"target_compile_options": func(ev *Evaluator, n *ast.Node, args []arg) error {
			return targetAttrCommand(ev, n, args, attrCopts)
		},
		"target_link_options": builtinTargetLinkOptions,
		"add_subdirectory":    builtinAddSubdirectory,
		"enable_testing":      builtinNop,
		"include":             builtinUnsupportedKeep,
		"find_package":        builtinUnsupportedKeep,
		"install":             builtinNop,
		"set_target_properties": func(ev *Evaluator, n *ast.Node, args []arg) error {
			ev.reportf(diag.EvalUnsupportedClause, diag.SevWarning, n.Span,
				"set_target_properties is not translated; properties are ignored")
			return nil
		},
	}
}

func builtinNop(*Evaluator, *ast.Node, []arg) error { return nil }

// builtinUnsupportedKeep covers commands the translator knows about but
// deliberately does not evaluate (include, find_package). They warn instead
// of erroring so a script using them still translates.
func builtinUnsupportedKeep(ev *Evaluator, n *ast.Node, args []arg) error {
	what := strings.ToLower(n.Name)
	ev.report(diag.EvalUnsupportedCommand, diag.SevWarning, n.Span,
		what+"() is not evaluated",
		[]diag.Note{{Span: n.Span, Msg: "declare the library in [external_libraries] or add a [mappings] entry"}})
	return nil
}

func builtinMinimumRequired(ev *Evaluator, n *ast.Node, args []arg) error {
	words := texts(args)
	for i, w := range words {
		if strings.EqualFold(w, "VERSION") && i+1 < len(words) {
			ev.mdl.MinVersion = words[i+1]
			return nil
		}
	}
	ev.reportf(diag.EvalBadCommandArity, diag.SevWarning, n.Span,
		"cmake_minimum_required expects VERSION <version>")
	return nil
}

func builtinProject(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"project() requires a name")
		return nil
	}
	name := args[0].Text
	ev.mdl.Project = name
	ev.scope.Set("PROJECT_NAME", []string{name}, scope.Global)
	ev.scope.Set("CMAKE_PROJECT_NAME", []string{name}, scope.Global)
	words := texts(args)
	for i, w := range words {
		if strings.EqualFold(w, "VERSION") && i+1 < len(words) {
			ev.scope.Set("PROJECT_VERSION", []string{words[i+1]}, scope.Global)
		}
	}
	return nil
}

// builtinSet implements set(VAR value... [PARENT_SCOPE]) and the cache form
// set(VAR value... CACHE type doc [FORCE]); cache writes go to the global
// frame.
func builtinSet(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span, "set() requires a variable name")
		return nil
	}
	name := args[0].Text
	rest := args[1:]
	target := scope.Current

	if len(rest) > 0 && rest[len(rest)-1].Kind == argWord && rest[len(rest)-1].Text == "PARENT_SCOPE" {
		target = scope.Parent
		rest = rest[:len(rest)-1]
	} else {
		for i, a := range rest {
			if a.Kind == argWord && a.Text == "CACHE" {
				target = scope.Global
				rest = rest[:i]
				break
			}
		}
	}
	ev.scope.Set(name, texts(rest), target)
	return nil
}

func builtinUnset(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span, "unset() requires a variable name")
		return nil
	}
	target := scope.Current
	if len(args) > 1 {
		switch args[1].Text {
		case "PARENT_SCOPE":
			target = scope.Parent
		case "CACHE":
			target = scope.Global
		}
	}
	ev.scope.Unset(args[0].Text, target)
	return nil
}

// builtinOption defines a boolean variable unless the caller already set it.
func builtinOption(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) < 2 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"option() requires a variable name and a description")
		return nil
	}
	name := args[0].Text
	if _, defined := ev.scope.Resolve(name); defined {
		return nil
	}
	value := "OFF"
	if len(args) > 2 {
		value = args[2].Text
	}
	ev.scope.Set(name, []string{value}, scope.Global)
	return nil
}

func builtinMessage(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		return nil
	}
	mode := ""
	body := args
	switch args[0].Text {
	case "STATUS", "WARNING", "AUTHOR_WARNING", "SEND_ERROR", "FATAL_ERROR",
		"DEPRECATION", "NOTICE", "VERBOSE", "DEBUG", "TRACE":
		mode = args[0].Text
		body = args[1:]
	}
	text := strings.Join(texts(body), "")
	switch mode {
	case "FATAL_ERROR":
		ev.reportf(diag.EvalInfo, diag.SevError, n.Span, "message(FATAL_ERROR): %s", text)
		ev.halted = true
		if ev.fatal == nil {
			ev.fatal = ErrAborted
		}
	case "SEND_ERROR":
		ev.reportf(diag.EvalInfo, diag.SevError, n.Span, "message(SEND_ERROR): %s", text)
	case "WARNING", "AUTHOR_WARNING", "DEPRECATION":
		ev.reportf(diag.EvalInfo, diag.SevWarning, n.Span, "message: %s", text)
	default:
		ev.reportf(diag.EvalInfo, diag.SevInfo, n.Span, "message: %s", text)
	}
	return nil
}

// builtinList implements the list() subcommands the translator needs:
// LENGTH, GET, APPEND, PREPEND, REMOVE_ITEM, REVERSE, JOIN.
func builtinList(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) < 2 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"list() requires a subcommand and a list variable")
		return nil
	}
	sub := strings.ToUpper(args[0].Text)
	listName := args[1].Text
	current, _ := ev.scope.Resolve(listName)
	rest := texts(args[2:])

	switch sub {
	case "LENGTH":
		if len(rest) != 1 {
			ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
				"list(LENGTH) requires an output variable")
			return nil
		}
		ev.scope.Set(rest[0], []string{strconv.Itoa(len(current))}, scope.Current)
	case "GET":
		if len(rest) < 2 {
			ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
				"list(GET) requires at least one index and an output variable")
			return nil
		}
		out := rest[len(rest)-1]
		var picked []string
		for _, idxText := range rest[:len(rest)-1] {
			idx, err := strconv.Atoi(idxText)
			if err != nil {
				ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
					"list(GET) index %q is not an integer", idxText)
				return nil
			}
			if idx < 0 {
				idx += len(current)
			}
			if idx < 0 || idx >= len(current) {
				ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
					"list(GET) index %s out of range for %q (length %d)", idxText, listName, len(current))
				return nil
			}
			picked = append(picked, current[idx])
		}
		ev.scope.Set(out, picked, scope.Current)
	case "APPEND":
		ev.scope.Set(listName, append(append([]string{}, current...), rest...), scope.Current)
	case "PREPEND":
		ev.scope.Set(listName, append(append([]string{}, rest...), current...), scope.Current)
	case "REMOVE_ITEM":
		remove := make(map[string]bool, len(rest))
		for _, r := range rest {
			remove[r] = true
		}
		kept := make([]string, 0, len(current))
		for _, item := range current {
			if !remove[item] {
				kept = append(kept, item)
			}
		}
		ev.scope.Set(listName, kept, scope.Current)
	case "REVERSE":
		reversed := make([]string, len(current))
		for i, item := range current {
			reversed[len(current)-1-i] = item
		}
		ev.scope.Set(listName, reversed, scope.Current)
	case "JOIN":
		if len(rest) != 2 {
			ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
				"list(JOIN) requires a glue string and an output variable")
			return nil
		}
		ev.scope.Set(rest[1], []string{strings.Join(current, rest[0])}, scope.Current)
	default:
		ev.reportf(diag.EvalUnsupportedClause, diag.SevWarning, n.Span,
			"list(%s) is not supported", sub)
	}
	return nil
}

func builtinIncludeDirectories(ev *Evaluator, n *ast.Node, args []arg) error {
	for _, a := range args {
		switch a.Text {
		case "AFTER", "BEFORE", "SYSTEM":
			continue
		}
		ev.mdl.GlobalIncludes = append(ev.mdl.GlobalIncludes, a.Text)
	}
	return nil
}

func builtinAddDefinitions(ev *Evaluator, n *ast.Node, args []arg) error {
	for _, a := range args {
		ev.mdl.GlobalDefines = append(ev.mdl.GlobalDefines, strings.TrimPrefix(a.Text, "-D"))
	}
	return nil
}

// declare creates a target, reporting a duplicate name as an error and
// returning the original so later mutations still land somewhere sensible.
func (ev *Evaluator) declare(name string, kind model.TargetKind, sp source.Span, command string) *model.Target {
	t, fresh := ev.mdl.Declare(name, kind, sp, command)
	if !fresh {
		ev.report(diag.EvalDuplicateTarget, diag.SevError, sp,
			"target "+strconv.Quote(name)+" is already declared",
			[]diag.Note{{Span: t.Span, Msg: "first declared here"}})
	}
	return t
}

func builtinAddExecutable(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"add_executable() requires a target name")
		return nil
	}
	t := ev.declare(args[0].Text, model.KindBinary, n.Span, "add_executable")
	for _, a := range args[1:] {
		switch a.Text {
		case "WIN32", "MACOSX_BUNDLE", "EXCLUDE_FROM_ALL":
			continue
		}
		t.Sources = append(t.Sources, a.Text)
	}
	return nil
}

func builtinAddLibrary(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"add_library() requires a target name")
		return nil
	}
	name := args[0].Text
	rest := args[1:]

	// add_library(alias ALIAS real) introduces a second name, not a target.
	if len(rest) == 2 && rest[0].Text == "ALIAS" {
		ev.aliases[name] = rest[1].Text
		if _, ok := ev.lookupTarget(rest[1].Text); !ok {
			ev.reportf(diag.EvalUnknownTarget, diag.SevError, n.Span,
				"alias %q refers to undeclared target %q", name, rest[1].Text)
		}
		return nil
	}

	t := ev.declare(name, model.KindLibrary, n.Span, "add_library")
	t.Linkage = model.LinkStatic
	for _, a := range rest {
		switch a.Text {
		case "STATIC":
			t.Linkage = model.LinkStatic
		case "SHARED", "MODULE":
			t.Linkage = model.LinkShared
		case "OBJECT":
			t.Linkage = model.LinkObject
		case "INTERFACE":
			t.Linkage = model.LinkInterface
		case "IMPORTED", "GLOBAL", "EXCLUDE_FROM_ALL":
			// Accepted; nothing to record.
		default:
			t.Sources = append(t.Sources, a.Text)
		}
	}
	return nil
}

// builtinAddTest handles both add_test(NAME n COMMAND c args...) and the
// short add_test(n c args...) form. When the command names a declared
// target the test depends on it.
func builtinAddTest(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"add_test() requires a test name")
		return nil
	}
	words := texts(args)
	name := words[0]
	var command []string
	if strings.EqualFold(words[0], "NAME") {
		if len(words) < 2 {
			ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
				"add_test(NAME ...) requires a name")
			return nil
		}
		name = words[1]
		for i := 2; i < len(words); i++ {
			if strings.EqualFold(words[i], "COMMAND") {
				command = words[i+1:]
				break
			}
		}
	} else {
		command = words[1:]
	}
	t := ev.declare(name, model.KindTest, n.Span, "add_test")
	t.GenCommand = command
	if len(command) > 0 {
		if dep, ok := ev.lookupTarget(command[0]); ok {
			t.AddDep(model.Dep{Name: dep.Name, Visibility: model.Private, Span: n.Span})
		}
	}
	return nil
}

// builtinAddCustomCommand records an OUTPUT-form custom command as a
// generated-file target named after its first output.
func builtinAddCustomCommand(ev *Evaluator, n *ast.Node, args []arg) error {
	words := texts(args)
	var outputs, command, depends []string
	comment := ""
	section := ""
	for i := 0; i < len(words); i++ {
		switch words[i] {
		case "OUTPUT", "COMMAND", "DEPENDS", "BYPRODUCTS":
			section = words[i]
			continue
		case "WORKING_DIRECTORY", "COMMENT", "MAIN_DEPENDENCY":
			section = words[i]
			continue
		case "VERBATIM", "APPEND", "USES_TERMINAL", "COMMAND_EXPAND_LISTS":
			section = ""
			continue
		}
		switch section {
		case "OUTPUT", "BYPRODUCTS":
			outputs = append(outputs, words[i])
		case "COMMAND":
			command = append(command, words[i])
		case "DEPENDS", "MAIN_DEPENDENCY":
			depends = append(depends, words[i])
		case "COMMENT":
			comment = words[i]
		}
	}
	if len(outputs) == 0 {
		ev.report(diag.EvalUnsupportedClause, diag.SevWarning, n.Span,
			"add_custom_command without OUTPUT is not translated",
			[]diag.Note{{Span: n.Span, Msg: "only the OUTPUT-generating form maps to a generator rule"}})
		return nil
	}

	// The whole output path feeds the name so two generated files sharing a
	// basename in different directories get distinct rules.
	stem := strings.TrimSuffix(outputs[0], filepath.Ext(outputs[0]))
	name := groupRuleName(stem) + "_gen"
	t := ev.declare(name, model.KindCustomGenerated, n.Span, "add_custom_command")
	t.GenOutputs = outputs
	t.GenCommand = command
	t.GenComment = comment
	for _, d := range depends {
		if dep, ok := ev.lookupTarget(d); ok {
			t.AddDep(model.Dep{Name: dep.Name, Visibility: model.Private, Span: n.Span})
		} else {
			t.Sources = append(t.Sources, d)
		}
	}
	return nil
}

func builtinAddCustomTarget(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"add_custom_target() requires a target name")
		return nil
	}
	words := texts(args)
	t := ev.declare(words[0], model.KindCustomGenerated, n.Span, "add_custom_target")
	section := ""
	for _, w := range words[1:] {
		switch w {
		case "ALL", "VERBATIM", "USES_TERMINAL":
			section = ""
			continue
		case "COMMAND", "DEPENDS", "BYPRODUCTS", "WORKING_DIRECTORY", "COMMENT", "SOURCES":
			section = w
			continue
		}
		switch section {
		case "COMMAND":
			t.GenCommand = append(t.GenCommand, w)
		case "COMMENT":
			t.GenComment = w
		case "BYPRODUCTS":
			t.GenOutputs = append(t.GenOutputs, w)
		case "SOURCES":
			t.Sources = append(t.Sources, w)
		case "DEPENDS":
			if dep, ok := ev.lookupTarget(w); ok {
				t.AddDep(model.Dep{Name: dep.Name, Visibility: model.Private, Span: n.Span})
			} else {
				t.Sources = append(t.Sources, w)
			}
		}
	}
	return nil
}

// builtinSourceGroup maps source_group(name FILES ...) onto a file-group
// target. The IDE-only TREE/REGULAR_EXPRESSION forms are ignored.
func builtinSourceGroup(ev *Evaluator, n *ast.Node, args []arg) error {
	words := texts(args)
	if len(words) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"source_group() requires a group name")
		return nil
	}
	filesAt := -1
	for i, w := range words {
		if w == "FILES" {
			filesAt = i
			break
		}
		if w == "REGULAR_EXPRESSION" || w == "TREE" {
			ev.reportf(diag.EvalUnsupportedClause, diag.SevWarning, n.Span,
				"source_group(%s) is not translated", w)
			return nil
		}
	}
	if filesAt < 0 || filesAt+1 >= len(words) {
		ev.reportf(diag.EvalBadCommandArity, diag.SevWarning, n.Span,
			"source_group without FILES is ignored")
		return nil
	}
	name := groupRuleName(strings.Join(words[:filesAt], "_"))
	t := ev.declare(name, model.KindFileGroup, n.Span, "source_group")
	t.Sources = append(t.Sources, words[filesAt+1:]...)
	return nil
}

// groupRuleName turns a source_group name ("Header Files", "a\\b") into a
// legal rule name.
func groupRuleName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// requireTarget resolves the first argument of a target_* command.
func (ev *Evaluator) requireTarget(ctx string, n *ast.Node, args []arg) (*model.Target, []arg) {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"%s() requires a target name", ctx)
		return nil, nil
	}
	t, ok := ev.lookupTarget(args[0].Text)
	if !ok {
		ev.reportf(diag.EvalUnknownTarget, diag.SevError, args[0].Span,
			"%s: target %q is not declared", ctx, args[0].Text)
		return nil, nil
	}
	return t, args[1:]
}

func builtinTargetSources(ev *Evaluator, n *ast.Node, args []arg) error {
	t, rest := ev.requireTarget("target_sources", n, args)
	if t == nil {
		return nil
	}
	for _, a := range rest {
		switch a.Text {
		case "PUBLIC", "PRIVATE", "INTERFACE":
			continue
		}
		t.Sources = append(t.Sources, a.Text)
	}
	return nil
}

// builtinTargetLinkLibraries adds dependency edges. A bare argument defaults
// to PRIVATE; edges to names that are neither declared targets nor external
// tokens stay in the model and fail at finalization.
func builtinTargetLinkLibraries(ev *Evaluator, n *ast.Node, args []arg) error {
	t, rest := ev.requireTarget("target_link_libraries", n, args)
	if t == nil {
		return nil
	}
	vis := model.Private
	for _, a := range rest {
		switch a.Text {
		case "PUBLIC":
			vis = model.Public
			continue
		case "PRIVATE":
			vis = model.Private
			continue
		case "INTERFACE":
			vis = model.Interface
			continue
		}
		name := a.Text
		if real, ok := ev.aliases[name]; ok {
			name = real
		}
		t.AddDep(model.Dep{Name: name, Visibility: vis, Span: a.Span})
	}
	return nil
}

// targetAttr selects which attribute list a target_* command appends to.
type targetAttr uint8

const (
	attrIncludes targetAttr = iota
	attrDefines
	attrCopts
)

// targetAttrCommand is the shared shape of target_include_directories,
// target_compile_definitions, and target_compile_options.
func targetAttrCommand(ev *Evaluator, n *ast.Node, args []arg, which targetAttr) error {
	t, rest := ev.requireTarget(strings.ToLower(n.Name), n, args)
	if t == nil {
		return nil
	}
	vis := model.Private
	for _, a := range rest {
		switch a.Text {
		case "PUBLIC":
			vis = model.Public
			continue
		case "PRIVATE":
			vis = model.Private
			continue
		case "INTERFACE":
			vis = model.Interface
			continue
		case "SYSTEM", "BEFORE", "AFTER":
			continue
		}
		attrs := t.AttrsFor(vis)
		switch which {
		case attrIncludes:
			attrs.Includes = append(attrs.Includes, a.Text)
		case attrDefines:
			attrs.Defines = append(attrs.Defines, strings.TrimPrefix(a.Text, "-D"))
		case attrCopts:
			attrs.Copts = append(attrs.Copts, a.Text)
		}
	}
	return nil
}

func builtinTargetLinkOptions(ev *Evaluator, n *ast.Node, args []arg) error {
	t, rest := ev.requireTarget("target_link_options", n, args)
	if t == nil {
		return nil
	}
	for _, a := range rest {
		switch a.Text {
		case "PUBLIC", "PRIVATE", "INTERFACE", "BEFORE":
			continue
		}
		t.LinkOpts = append(t.LinkOpts, a.Text)
	}
	return nil
}

// builtinAddSubdirectory records the request together with a snapshot of the
// visible variables; the driver runs the child directory as its own
// translation seeded from the snapshot.
func builtinAddSubdirectory(ev *Evaluator, n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"add_subdirectory() requires a directory")
		return nil
	}
	ev.mdl.Subdirs = append(ev.mdl.Subdirs, model.SubdirRequest{
		Dir:      args[0].Text,
		Span:     n.Span,
		Snapshot: ev.scope.Snapshot(),
	})
	return nil
}

// customCommand handles an unknown command that a configuration mapping
// claims: the first argument names the target, the rest become its sources.
// The generator draws the rule kind and attribute names from the mapping.
func (ev *Evaluator) customCommand(n *ast.Node, args []arg) error {
	if len(args) == 0 {
		ev.reportf(diag.EvalBadCommandArity, diag.SevError, n.Span,
			"%s() requires a target name", n.Name)
		return nil
	}
	t := ev.declare(args[0].Text, model.KindCustomGenerated, n.Span, strings.ToLower(n.Name))
	t.Sources = append(t.Sources, texts(args[1:])...)
	return nil
}
