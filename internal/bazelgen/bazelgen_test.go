package bazelgen_test

import (
	"strings"
	"testing"

	"bazelize/internal/bazelgen"
	"bazelize/internal/config"
	"bazelize/internal/diag"
	"bazelize/internal/model"
	"bazelize/internal/source"
)

func buildModel(t *testing.T, build func(m *model.Model), overrides *config.Overrides) *model.Model {
	t.Helper()
	m := model.New()
	build(m)
	if overrides == nil {
		overrides = config.Default()
	}
	if err := m.Finalize(overrides.IsExternal); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return m
}

func generate(t *testing.T, m *model.Model, overrides *config.Overrides) (string, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(50)
	out, err := bazelgen.Generate(m, overrides, &diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("Generate: %v\ndiagnostics: %+v", err, bag.Items())
	}
	return out, bag
}

func TestLibraryThenBinaryOrder(t *testing.T) {
	m := buildModel(t, func(m *model.Model) {
		// The binary is declared first but must render after its dependency.
		app, _ := m.Declare("MyApp", model.KindBinary, source.Span{}, "add_executable")
		app.Sources = []string{"src/main.cpp"}
		app.AddDep(model.Dep{Name: "MyLib", Visibility: model.Private})
		lib, _ := m.Declare("MyLib", model.KindLibrary, source.Span{}, "add_library")
		lib.Sources = []string{"src/lib.cpp"}
	}, nil)
	out, bag := generate(t, m, nil)
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	libAt := strings.Index(out, `cc_library(`)
	appAt := strings.Index(out, `cc_binary(`)
	if libAt < 0 || appAt < 0 || libAt > appAt {
		t.Fatalf("library must render before its dependent:\n%s", out)
	}
	if !strings.Contains(out, "\":MyLib\"") {
		t.Errorf("missing dep label:\n%s", out)
	}
}

func TestRoundTripIdempotence(t *testing.T) {
	build := func(m *model.Model) {
		lib, _ := m.Declare("core", model.KindLibrary, source.Span{}, "add_library")
		lib.Sources = []string{"core.cpp"}
		lib.Public.Includes = []string{"include"}
		app, _ := m.Declare("tool", model.KindBinary, source.Span{}, "add_executable")
		app.Sources = []string{"tool.cpp"}
		app.AddDep(model.Dep{Name: "core", Visibility: model.Public})
	}
	first, _ := generate(t, buildModel(t, build, nil), nil)
	second, _ := generate(t, buildModel(t, build, nil), nil)
	if first != second {
		t.Errorf("identical input produced different output:\n--- first\n%s\n--- second\n%s", first, second)
	}
}

func TestAttributeOrderAndEscaping(t *testing.T) {
	m := buildModel(t, func(m *model.Model) {
		lib, _ := m.Declare("lib", model.KindLibrary, source.Span{}, "add_library")
		lib.Sources = []string{`path with "quotes".cpp`, `back\slash.cpp`}
		lib.Private.Includes = []string{"src"}
		lib.Private.Defines = []string{`MSG="hi"`}
		lib.Private.Copts = []string{"-Wall"}
		lib.LinkOpts = []string{"-lm"}
	}, nil)
	out, _ := generate(t, m, nil)
	order := []string{"name =", "srcs =", "includes =", "defines =", "copts =", "linkopts ="}
	last := -1
	for _, attr := range order {
		at := strings.Index(out, attr)
		if at < 0 {
			t.Fatalf("attribute %q missing:\n%s", attr, out)
		}
		if at < last {
			t.Errorf("attribute %q out of order:\n%s", attr, out)
		}
		last = at
	}
	if !strings.Contains(out, `path with \"quotes\".cpp`) {
		t.Errorf("quote escaping wrong:\n%s", out)
	}
	if !strings.Contains(out, `back\\slash.cpp`) {
		t.Errorf("backslash escaping wrong:\n%s", out)
	}
	if !strings.Contains(out, `MSG=\"hi\"`) {
		t.Errorf("define escaping wrong:\n%s", out)
	}
}

func TestExclusionDropsRuleAndEdges(t *testing.T) {
	overrides := &config.Overrides{ExcludedTargets: []string{"legacy"}}

	m := buildModel(t, func(m *model.Model) {
		lib, _ := m.Declare("legacy", model.KindLibrary, source.Span{}, "add_library")
		lib.Sources = []string{"old.cpp"}
		app, _ := m.Declare("app", model.KindBinary, source.Span{}, "add_executable")
		app.Sources = []string{"main.cpp"}
		app.AddDep(model.Dep{Name: "legacy", Visibility: model.Private})
	}, overrides)
	out, bag := generate(t, m, overrides)
	if strings.Contains(out, `"legacy"`) {
		t.Errorf("excluded target still rendered:\n%s", out)
	}
	if strings.Contains(out, ":legacy") {
		t.Errorf("edge to excluded target still rendered:\n%s", out)
	}
	warned := false
	for _, d := range bag.Items() {
		if d.Code == diag.GenExcludedDependency && d.Severity == diag.SevWarning {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no warning for dropped edge: %+v", bag.Items())
	}
}

func TestExternalLibraryLabel(t *testing.T) {
	overrides := &config.Overrides{
		ExternalLibraries: map[string]string{"pthread": "@system//:pthread"},
	}

	m := buildModel(t, func(m *model.Model) {
		app, _ := m.Declare("app", model.KindBinary, source.Span{}, "add_executable")
		app.Sources = []string{"main.cpp"}
		app.AddDep(model.Dep{Name: "pthread", Visibility: model.Private})
	}, overrides)
	out, _ := generate(t, m, overrides)
	if !strings.Contains(out, `"@system//:pthread"`) {
		t.Errorf("external label not resolved:\n%s", out)
	}
}

func TestAdditionalDependenciesSplicedAndDeduped(t *testing.T) {
	overrides := &config.Overrides{
		AdditionalDependencies: map[string][]string{
			"app": {"//third_party:extra", ":core"},
		},
	}

	m := buildModel(t, func(m *model.Model) {
		core, _ := m.Declare("core", model.KindLibrary, source.Span{}, "add_library")
		core.Sources = []string{"core.cpp"}
		app, _ := m.Declare("app", model.KindBinary, source.Span{}, "add_executable")
		app.Sources = []string{"main.cpp"}
		app.AddDep(model.Dep{Name: "core", Visibility: model.Private})
	}, overrides)
	out, _ := generate(t, m, overrides)
	if !strings.Contains(out, `"//third_party:extra"`) {
		t.Errorf("extra dep not spliced:\n%s", out)
	}
	if strings.Count(out, `":core"`) != 1 {
		t.Errorf("dep not deduplicated:\n%s", out)
	}
}

func TestOverrideMappingAndRenames(t *testing.T) {
	overrides := &config.Overrides{
		Mappings: map[string]config.RuleMapping{
			"my_proto": {
				RuleKind:   "proto_library",
				Attributes: map[string]string{"srcs": "sources"},
			},
		},
	}

	m := buildModel(t, func(m *model.Model) {
		p, _ := m.Declare("api", model.KindCustomGenerated, source.Span{}, "my_proto")
		p.Sources = []string{"api.proto"}
	}, overrides)
	out, _ := generate(t, m, overrides)
	if !strings.Contains(out, "proto_library(") {
		t.Errorf("rule kind override not applied:\n%s", out)
	}
	if !strings.Contains(out, "sources = [") || strings.Contains(out, "srcs = [") {
		t.Errorf("attribute rename not applied:\n%s", out)
	}
}

func TestBadMappingSkipsOnlyThatTarget(t *testing.T) {
	overrides := &config.Overrides{
		Mappings: map[string]config.RuleMapping{
			"broken_cmd": {RuleKind: ""},
		},
	}

	m := buildModel(t, func(m *model.Model) {
		bad, _ := m.Declare("bad", model.KindCustomGenerated, source.Span{}, "broken_cmd")
		bad.Sources = []string{"x"}
		good, _ := m.Declare("good", model.KindLibrary, source.Span{}, "add_library")
		good.Sources = []string{"good.cpp"}
	}, overrides)
	out, bag := generate(t, m, overrides)
	if strings.Contains(out, `name = "bad"`) {
		t.Errorf("malformed target rendered anyway:\n%s", out)
	}
	if !strings.Contains(out, `name = "good"`) {
		t.Errorf("sibling target missing:\n%s", out)
	}
	errored := false
	for _, d := range bag.Items() {
		if d.Code == diag.GenBadMapping {
			errored = true
		}
	}
	if !errored {
		t.Errorf("bad mapping not reported: %+v", bag.Items())
	}
}

func TestGenruleAttributes(t *testing.T) {
	m := buildModel(t, func(m *model.Model) {
		g, _ := m.Declare("parser_gen", model.KindCustomGenerated, source.Span{}, "add_custom_command")
		g.Sources = []string{"parser.l"}
		g.GenOutputs = []string{"gen/parser.cpp"}
		g.GenCommand = []string{"flex", "-o", "gen/parser.cpp", "parser.l"}
		g.GenComment = "generating parser"
	}, nil)
	out, _ := generate(t, m, nil)
	for _, want := range []string{
		"# generating parser",
		"genrule(",
		`outs = [`,
		`"gen/parser.cpp"`,
		`cmd = "flex -o gen/parser.cpp parser.l"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPublicClosureRendersOnDependents(t *testing.T) {
	m := buildModel(t, func(m *model.Model) {
		base, _ := m.Declare("base", model.KindLibrary, source.Span{}, "add_library")
		base.Sources = []string{"base.cpp"}
		base.Public.Includes = []string{"base/include"}
		mid, _ := m.Declare("mid", model.KindLibrary, source.Span{}, "add_library")
		mid.Sources = []string{"mid.cpp"}
		mid.AddDep(model.Dep{Name: "base", Visibility: model.Public})
		app, _ := m.Declare("app", model.KindBinary, source.Span{}, "add_executable")
		app.Sources = []string{"main.cpp"}
		app.AddDep(model.Dep{Name: "mid", Visibility: model.Private})
	}, nil)
	out, _ := generate(t, m, nil)
	appBlock := out[strings.Index(out, "cc_binary("):]
	if !strings.Contains(appBlock, `"base/include"`) {
		t.Errorf("public include did not propagate through the chain:\n%s", out)
	}
}
