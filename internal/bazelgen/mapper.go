// Package bazelgen turns a finalized build model into Bazel rule text. The
// mapper applies the configuration overrides (exclusions, custom rule kinds,
// extra dependencies); the renderer serializes each surviving target as one
// rule block in dependency order.
package bazelgen

import (
	"fmt"
	"strings"

	"bazelize/internal/config"
	"bazelize/internal/diag"
	"bazelize/internal/model"
)

// defaultRuleKinds maps a target kind to its Bazel rule when no override
// names the originating command.
var defaultRuleKinds = map[model.TargetKind]string{
	model.KindBinary:          "cc_binary",
	model.KindLibrary:         "cc_library",
	model.KindTest:            "cc_test",
	model.KindCustomGenerated: "genrule",
	model.KindFileGroup:       "filegroup",
}

// plan is one target resolved against the overrides, ready to render.
type plan struct {
	target   *model.Target
	ruleKind string
	renames  map[string]string
	deps     []string
}

// mapTargets applies the overrides to the finalized model: drops excluded
// targets and edges into them, resolves rule kinds, splices extra
// dependencies, and resolves dependency labels. Per-target problems are
// reported and the target skipped; siblings still render.
func mapTargets(m *model.Model, overrides *config.Overrides, rep diag.Reporter) []plan {
	plans := make([]plan, 0, m.Len())
	for _, t := range m.Sorted() {
		if overrides.IsExcluded(t.Name) {
			rep.Report(diag.GenExcludedTarget, diag.SevInfo, t.Span,
				fmt.Sprintf("target %q excluded by configuration", t.Name), nil)
			continue
		}
		p, ok := planTarget(t, overrides, rep)
		if !ok {
			continue
		}
		plans = append(plans, p)
	}
	return plans
}

func planTarget(t *model.Target, overrides *config.Overrides, rep diag.Reporter) (plan, bool) {
	p := plan{target: t, ruleKind: defaultRuleKinds[t.Kind]}

	if mapping, ok := overrides.MappingFor(t.Command); ok {
		if mapping.RuleKind == "" {
			rep.Report(diag.GenBadMapping, diag.SevError, t.Span,
				fmt.Sprintf("mapping for command %q has no rule_kind; target %q skipped", t.Command, t.Name), nil)
			return plan{}, false
		}
		for from, to := range mapping.Attributes {
			if to == "" {
				rep.Report(diag.GenBadMapping, diag.SevError, t.Span,
					fmt.Sprintf("mapping for command %q renames attribute %q to nothing; target %q skipped",
						t.Command, from, t.Name), nil)
				return plan{}, false
			}
		}
		p.ruleKind = mapping.RuleKind
		p.renames = mapping.Attributes
	}

	for _, d := range t.Deps {
		if overrides.IsExcluded(d.Name) {
			rep.Report(diag.GenExcludedDependency, diag.SevWarning, d.Span,
				fmt.Sprintf("target %q depended on excluded target %q; edge dropped", t.Name, d.Name), nil)
			continue
		}
		p.deps = appendLabel(p.deps, depLabel(d.Name, overrides))
	}
	for _, extra := range overrides.ExtraDeps(t.Name) {
		p.deps = appendLabel(p.deps, extra)
	}
	return p, true
}

// depLabel renders a dependency edge as a Bazel label: external tokens
// resolve through the configuration table, internal targets reference the
// same package.
func depLabel(name string, overrides *config.Overrides) string {
	if label, ok := overrides.ExternalLabel(name); ok {
		return label
	}
	if strings.HasPrefix(name, ":") || strings.HasPrefix(name, "//") || strings.HasPrefix(name, "@") {
		return name
	}
	return ":" + name
}

func appendLabel(labels []string, label string) []string {
	for _, have := range labels {
		if have == label {
			return labels
		}
	}
	return append(labels, label)
}
