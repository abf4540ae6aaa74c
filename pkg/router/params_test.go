package router

import (
	"reflect"
	"testing"
)

func TestDecodeParams(t *testing.T) {
	type postParams struct {
		Year    int      `param:"year"`
		Slug    string   `param:"slug"`
		Rest    []string `param:"rest"`
		Draft   bool     `param:"draft"`
		Score   float64  `param:"score"`
		Page    uint     `param:"page"`
		Skipped string   `param:"-"`
		Missing string   `param:"missing"`
		NoTag   string
	}

	var p postParams
	p.Missing = "kept"
	err := DecodeParams(map[string]string{
		"year":  "2024",
		"slug":  "hello-world",
		"rest":  "a/b/c",
		"draft": "true",
		"score": "1.5",
		"page":  "3",
		"-":     "nope",
	}, &p)
	if err != nil {
		t.Fatalf("DecodeParams() error = %v", err)
	}

	want := postParams{
		Year:    2024,
		Slug:    "hello-world",
		Rest:    []string{"a", "b", "c"},
		Draft:   true,
		Score:   1.5,
		Page:    3,
		Missing: "kept",
	}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("DecodeParams() = %+v, want %+v", p, want)
	}
}

func TestDecodeParamsFromMatch(t *testing.T) {
	tree := buildTree(t, Options{}, "files/[...path].tsx")
	m, err := tree.Match("/files/a/b", TargetPage)
	if err != nil {
		t.Fatal(err)
	}
	var p struct {
		Path []string `param:"path"`
	}
	if err := DecodeParams(m.Params, &p); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p.Path, []string{"a", "b"}) {
		t.Errorf("Path = %v", p.Path)
	}
}

func TestDecodeParamsErrors(t *testing.T) {
	var s struct {
		ID int `param:"id"`
	}
	tests := []struct {
		name   string
		params map[string]string
		dst    any
	}{
		{"not pointer", map[string]string{}, s},
		{"nil pointer", map[string]string{}, (*struct{})(nil)},
		{"not struct", map[string]string{}, new(int)},
		{"bad int", map[string]string{"id": "abc"}, &s},
		{"overflow", map[string]string{"id8": "300"}, &struct {
			ID int8 `param:"id8"`
		}{}},
		{"unsupported", map[string]string{"m": "x"}, &struct {
			M map[string]string `param:"m"`
		}{}},
	}
	for _, tt := range tests {
		if err := DecodeParams(tt.params, tt.dst); err == nil {
			t.Errorf("%s: DecodeParams() error = nil", tt.name)
		}
	}
}
