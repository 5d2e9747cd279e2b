package bazelgen

import (
	"errors"
	"strings"

	"bazelize/internal/config"
	"bazelize/internal/diag"
	"bazelize/internal/model"
)

// ErrNotFinalized is returned when the model was not run through Finalize
// first; the generator depends on the dependency order it computes.
var ErrNotFinalized = errors.New("bazelgen: model is not finalized")

// Generate renders the finalized model as one Bazel build file. Output is
// deterministic: identical model and configuration yield byte-identical text.
func Generate(m *model.Model, overrides *config.Overrides, rep diag.Reporter) (string, error) {
	if overrides == nil {
		overrides = config.Default()
	}
	if rep == nil {
		rep = diag.NopReporter{}
	}
	if m.Len() > 0 && len(m.Sorted()) == 0 {
		return "", ErrNotFinalized
	}

	var b strings.Builder
	b.WriteString("# Generated by bazelize")
	if m.Project != "" {
		b.WriteString(" for project ")
		b.WriteString(m.Project)
	}
	b.WriteString(". Do not edit.\n")

	for _, p := range mapTargets(m, overrides, rep) {
		b.WriteByte('\n')
		renderRule(&b, m, p)
	}
	return b.String(), nil
}

// attrName applies the mapping's attribute renames.
func (p *plan) attrName(name string) string {
	if renamed, ok := p.renames[name]; ok {
		return renamed
	}
	return name
}

// renderRule writes one rule block. Attribute order is fixed: name, srcs,
// outs, cmd, includes, defines, copts, deps, linkopts; empty attributes are
// omitted.
func renderRule(b *strings.Builder, m *model.Model, p plan) {
	t := p.target
	if t.GenComment != "" {
		b.WriteString("# ")
		b.WriteString(t.GenComment)
		b.WriteByte('\n')
	}
	b.WriteString(p.ruleKind)
	b.WriteString("(\n")
	writeString(b, p.attrName("name"), t.Name)
	writeList(b, p.attrName("srcs"), t.Sources)

	if t.Kind == model.KindCustomGenerated {
		writeList(b, p.attrName("outs"), t.GenOutputs)
		if len(t.GenCommand) > 0 {
			writeString(b, p.attrName("cmd"), strings.Join(t.GenCommand, " "))
		}
	}

	if compiled(t.Kind) {
		attrs := m.EffectiveAttrs(t)
		writeList(b, p.attrName("includes"), prependGlobal(m.GlobalIncludes, attrs.Includes))
		writeList(b, p.attrName("defines"), prependGlobal(m.GlobalDefines, attrs.Defines))
		writeList(b, p.attrName("copts"), attrs.Copts)
	}

	writeList(b, p.attrName("deps"), p.deps)

	if compiled(t.Kind) {
		writeList(b, p.attrName("linkopts"), t.LinkOpts)
		if t.Kind == model.KindLibrary && t.Linkage == model.LinkShared {
			b.WriteString("    linkshared = True,\n")
		}
	}
	b.WriteString(")\n")
}

// compiled reports whether the target kind carries compile attributes.
func compiled(k model.TargetKind) bool {
	switch k {
	case model.KindBinary, model.KindLibrary, model.KindTest:
		return true
	}
	return false
}

// prependGlobal puts the directory-level values ahead of the target's own,
// de-duplicating.
func prependGlobal(global, own []string) []string {
	if len(global) == 0 {
		return own
	}
	out := make([]string, 0, len(global)+len(own))
	seen := make(map[string]bool, len(global)+len(own))
	for _, v := range append(append([]string{}, global...), own...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func writeString(b *strings.Builder, name, value string) {
	b.WriteString("    ")
	b.WriteString(name)
	b.WriteString(" = \"")
	b.WriteString(escape(value))
	b.WriteString("\",\n")
}

func writeList(b *strings.Builder, name string, values []string) {
	if len(values) == 0 {
		return
	}
	b.WriteString("    ")
	b.WriteString(name)
	b.WriteString(" = [\n")
	for _, v := range values {
		b.WriteString("        \"")
		b.WriteString(escape(v))
		b.WriteString("\",\n")
	}
	b.WriteString("    ],\n")
}

// escape protects embedded quotes and backslashes in Starlark strings.
func escape(s string) string {
	if !strings.ContainsAny(s, "\\\"\n") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
