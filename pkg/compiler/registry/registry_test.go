package registry

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/zurustar/elli/pkg/command"
	"github.com/zurustar/elli/pkg/compiler/names"
	"github.com/zurustar/elli/pkg/errs"
)

func newRegistry() *Registry {
	return New("ns", names.New(rand.New(rand.NewSource(1))))
}

func mustBegin(t *testing.T, r *Registry, description, name string) string {
	t.Helper()
	got, err := r.Begin(description, name)
	if err != nil {
		t.Fatalf("Begin(%q, %q): %v", description, name, err)
	}
	return got
}

func mustEnd(t *testing.T, r *Registry) {
	t.Helper()
	if err := r.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func intVar(name string) *IntVariable {
	return &IntVariable{Name: name, Holder: name + "_holder"}
}

func TestBeginNaming(t *testing.T) {
	r := newRegistry()

	root := mustBegin(t, r, "root", "__root")
	if root != "__root" {
		t.Errorf("explicit name not used: %s", root)
	}

	generated := mustBegin(t, r, "my fn!", "")
	// "my fn!" sanitizes to "my_fn_", then "_" and the random part follow.
	if !strings.HasPrefix(generated, "my_fn__") || len(generated) != len("my_fn__")+names.Length {
		t.Errorf("unexpected generated name %q", generated)
	}

	lines, _ := r.Lines(generated)
	want := "# Begin function my fn!, child of root"
	if len(lines) != 1 || lines[0].String() != want {
		t.Errorf("expected lineage comment %q, got %v", want, command.SerializeLines(lines))
	}

	mustEnd(t, r)
	mustEnd(t, r)

	lines, _ = r.Lines(root)
	if lines[0].String() != "# Begin function root, child of the root function" {
		t.Errorf("unexpected root lineage %q", lines[0])
	}
}

func TestBeginDuplicateName(t *testing.T) {
	r := newRegistry()
	mustBegin(t, r, "main", "main")
	mustEnd(t, r)

	_, err := r.Begin("other", "main")
	if !errs.Is(err, errs.NameError) {
		t.Fatalf("expected NameError, got %v", err)
	}
}

func TestEndWithoutBegin(t *testing.T) {
	r := newRegistry()
	if err := r.End(); !errs.Is(err, errs.ProtocolError) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if err := r.Push(command.New("say")); !errs.Is(err, errs.ProtocolError) {
		t.Fatalf("expected ProtocolError from Push, got %v", err)
	}
	if err := r.EndOperands(); !errs.Is(err, errs.ProtocolError) {
		t.Fatalf("expected ProtocolError from EndOperands, got %v", err)
	}
}

func TestDescriptionMapping(t *testing.T) {
	r := newRegistry()
	name := mustBegin(t, r, "helper", "")
	mustEnd(t, r)

	if !r.HasFunction("helper") {
		t.Fatal("HasFunction(helper) = false")
	}
	got, err := r.FunctionName("helper")
	if err != nil || got != name {
		t.Errorf("FunctionName = %q, %v; expected %q", got, err, name)
	}
	if _, err := r.FunctionName("missing"); !errs.Is(err, errs.NameError) {
		t.Errorf("expected NameError, got %v", err)
	}
}

func TestFunctionVariable(t *testing.T) {
	r := newRegistry()
	name := mustBegin(t, r, "f", "")
	mustEnd(t, r)

	if _, ok := r.FunctionVariable(name); ok {
		t.Fatal("unexpected result variable")
	}
	v := intVar("res")
	if err := r.SetFunctionVariable(name, v); err != nil {
		t.Fatal(err)
	}
	got, ok := r.FunctionVariable(name)
	if !ok || got != v {
		t.Errorf("FunctionVariable = %v, %v", got, ok)
	}
	if err := r.SetFunctionVariable("nope", v); !errs.Is(err, errs.NameError) {
		t.Errorf("expected NameError, got %v", err)
	}
}

func TestScopeVisibility(t *testing.T) {
	r := newRegistry()
	mustBegin(t, r, "root", "__root")
	global := intVar("g")
	if err := r.Declare(global); err != nil {
		t.Fatal(err)
	}
	if !r.GlobalScope().Owns(global) {
		t.Fatal("root declarations must be global")
	}

	mustBegin(t, r, "fn", "")
	local := intVar("l")
	if err := r.Declare(local); err != nil {
		t.Fatal(err)
	}

	t.Run("function sees globals", func(t *testing.T) {
		if _, err := r.GetVariable("g"); err != nil {
			t.Error(err)
		}
	})

	r.BeginChild("fn__if_handler")
	t.Run("inline child sees parent", func(t *testing.T) {
		if _, err := r.GetVariable("l"); err != nil {
			t.Error(err)
		}
	})
	mustEnd(t, r)

	mustBegin(t, r, "nested fn", "")
	t.Run("nested function does not see enclosing locals", func(t *testing.T) {
		if _, err := r.GetVariable("l"); !errs.Is(err, errs.NameError) {
			t.Errorf("expected NameError, got %v", err)
		}
		if !r.HasVariable("g") {
			t.Error("globals must stay visible")
		}
	})
	mustEnd(t, r)

	t.Run("redeclaration", func(t *testing.T) {
		if err := r.Declare(intVar("g")); !errs.Is(err, errs.NameError) {
			t.Errorf("expected NameError, got %v", err)
		}
	})

	mustEnd(t, r)
	mustEnd(t, r)
}

func TestUseParentScope(t *testing.T) {
	r := newRegistry()
	mustBegin(t, r, "root", "__root")
	mustBegin(t, r, "fn", "")

	fnScope := r.CurrentScope()
	r.UseParentScope(true)

	result := intVar("result")
	if err := r.Declare(result); err != nil {
		t.Fatal(err)
	}
	if !r.GlobalScope().Owns(result) || fnScope.Owns(result) {
		t.Error("declaration must go to the parent scope")
	}

	r.EnableOuterOperands(true)
	r.BeginOperands()
	operand := intVar("operand")
	if err := r.Declare(operand); err != nil {
		t.Fatal(err)
	}
	if !fnScope.Owns(operand) {
		t.Error("operands must stay in the function scope")
	}
	if err := r.EndOperands(); err != nil {
		t.Fatal(err)
	}

	after := intVar("after")
	r.Declare(after)
	if !r.GlobalScope().Owns(after) {
		t.Error("redirect must resume after the operand phase")
	}

	// A nested function starts without the redirect.
	mustBegin(t, r, "inner", "")
	inner := intVar("inner")
	r.Declare(inner)
	if !r.CurrentScope().Owns(inner) {
		t.Error("nested function must declare into its own scope")
	}
	mustEnd(t, r)

	mustEnd(t, r)
	mustEnd(t, r)
}

func TestPromoteAndRemove(t *testing.T) {
	r := newRegistry()
	mustBegin(t, r, "root", "__root")
	mustBegin(t, r, "fn", "")

	v := intVar("v")
	r.Declare(v)
	if !r.Promote(v) {
		t.Fatal("Promote failed")
	}
	if r.CurrentScope().Owns(v) || !r.GlobalScope().Owns(v) {
		t.Error("promoted variable must move to the parent")
	}
	if r.Promote(v) {
		t.Error("a variable not owned by the current scope cannot be promoted")
	}

	if !r.Remove(v) {
		t.Fatal("Remove failed")
	}
	if r.HasVariable("v") {
		t.Error("removed variable still visible")
	}
	if r.Remove(v) {
		t.Error("second Remove must report false")
	}
}

func TestNamedDeclarationsIgnoreParentRedirect(t *testing.T) {
	r := newRegistry()
	mustBegin(t, r, "root", "__root")
	mustBegin(t, r, "f", "")

	fScope := r.CurrentScope()
	r.UseParentScope(true)
	y := &IntVariable{Name: "y", Holder: "y_holder", Flags: Flags{Named: true}}
	if err := r.Declare(y); err != nil {
		t.Fatal(err)
	}
	r.UseParentScope(false)
	if !fScope.Owns(y) || r.GlobalScope().Owns(y) {
		t.Error("a named declaration must stay in its own scope")
	}

	if !r.Promote(y) {
		t.Fatal("Promote failed")
	}
	mustEnd(t, r)

	if !r.GlobalScope().Owns(y) {
		t.Error("the parent must own the promoted result")
	}
	if r.HasVariable("y") {
		t.Error("a promoted variable must not be visible by name")
	}

	mustBegin(t, r, "g", "")
	again := &IntVariable{Name: "y", Holder: "y_other", Flags: Flags{Named: true}}
	if err := r.Declare(again); err != nil {
		t.Errorf("another function may reuse the name: %v", err)
	}
	mustEnd(t, r)
	mustEnd(t, r)
}

func TestSelectors(t *testing.T) {
	players := command.NewSelector(command.EveryPlayer)

	tests := []struct {
		name     string
		variable Variable
		expected string
	}{
		{"int", &IntVariable{Name: "x", Holder: "x_abc"}, "@e[tag=x_abc,limit=1]"},
		{"entity", &EntityVariable{Name: "e", Tag: "e_abc"}, "@e[tag=e_abc,limit=1]"},
		{"override", &EntityVariable{Name: "PLAYERS", Override: &players}, "@a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.variable.Selector().String(); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		name      string
		flags     Flags
		cleanable bool
		temporary bool
	}{
		{"temporary", Flags{}, true, true},
		{"named", Flags{Named: true}, true, false},
		{"user created", Flags{UserCreated: true}, false, false},
		{"persistent", Flags{Persistent: true}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &IntVariable{Name: "v", Holder: "v", Flags: tt.flags}
			if Cleanable(v) != tt.cleanable {
				t.Errorf("Cleanable = %v", !tt.cleanable)
			}
			if Temporary(v) != tt.temporary {
				t.Errorf("Temporary = %v", !tt.temporary)
			}
		})
	}
}

func TestFunctionsOrder(t *testing.T) {
	r := newRegistry()
	mustBegin(t, r, "root", "__root")
	a := mustBegin(t, r, "a", "")
	mustEnd(t, r)
	b := mustBegin(t, r, "b", "")
	mustEnd(t, r)
	mustEnd(t, r)

	ids := r.Pregen().IDs()
	want := []string{"ns:__root", "ns:" + a, "ns:" + b}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, ids)
	}
}
