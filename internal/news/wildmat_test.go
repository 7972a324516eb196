package news

import (
	"reflect"
	"testing"
)

func TestWildmatMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"*", "comp.lang.go", true},
		{"comp.*", "comp.lang.go", true},
		{"comp.*", "alt.test", false},
		{"comp.*,!comp.lang.*", "comp.lang.go", false},
		{"comp.*,!comp.lang.*", "comp.os.linux", true},
		{"!comp.lang.*,comp.*", "comp.lang.go", true},
		{"misc.tes?", "misc.test", true},
		{"alt.[ab]*", "alt.binaries", true},
		{"alt.[^ab]*", "alt.binaries", false},
		{"alt.[^ab]*", "alt.test", true},
		{"odd.{name}", "odd.{name}", true},
		{"!comp.*", "comp.lang.go", false},
		{"!comp.*", "alt.test", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.name, func(t *testing.T) {
			w, err := CompileWildmat(tt.pattern)
			if err != nil {
				t.Fatalf("CompileWildmat(%q): %v", tt.pattern, err)
			}
			if got := w.Match(tt.name); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCompileWildmatErrors(t *testing.T) {
	for _, p := range []string{"", "  ", "comp.*,,alt.*", "!"} {
		if _, err := CompileWildmat(p); err == nil {
			t.Errorf("CompileWildmat(%q) succeeded, want error", p)
		}
	}
}

func TestFilterGroupsKeepsOrder(t *testing.T) {
	groups := []GroupResult{
		{Name: "comp.lang.python", High: "5", Low: "1", Status: "y"},
		{Name: "alt.test", High: "9", Low: "2", Status: "y"},
		{Name: "comp.lang.go", High: "7", Low: "3", Status: "m"},
	}

	w, err := CompileWildmat("comp.lang.*")
	if err != nil {
		t.Fatal(err)
	}

	got := FilterGroups(groups, w)
	want := []GroupResult{groups[0], groups[2]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterGroups = %+v, want %+v", got, want)
	}
}
