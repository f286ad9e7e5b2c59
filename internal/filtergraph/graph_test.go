package filtergraph

import (
	"strings"
	"testing"
)

func TestGraphString_SingleChain(t *testing.T) {
	g := &Graph{}
	g.Chain("0:v", "scaled0",
		NewFilter("scale").WithInt("", 1920).WithInt("", 1080),
	)

	got, err := g.String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[0:v]scale=1920:1080[scaled0]"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGraphString_NamedParams(t *testing.T) {
	g := &Graph{}
	g.Chain("0:a", "wave",
		NewFilter("showwaves").
			With("s", "1920x1080").
			With("mode", "line").
			With("colors", "white").
			WithInt("r", 30),
	)

	got, err := g.String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[0:a]showwaves=s=1920x1080:mode=line:colors=white:r=30[wave]"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGraphString_MultipleFragmentsAndInputs(t *testing.T) {
	g := &Graph{}
	g.Chain("0:v", "bg", NewFilter("scale").WithInt("", 640).WithInt("", 480))
	g.Add([]string{"bg", "overlay"}, []string{"v"},
		NewFilter("overlay").With("format", "auto"),
	)

	got, err := g.String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[0:v]scale=640:480[bg];[bg][overlay]overlay=format=auto[v]"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGraphString_FilterChainWithinFragment(t *testing.T) {
	g := &Graph{}
	g.Chain("scaled1", "v1",
		NewFilter("fade").With("t", "in").With("st", "0").WithFloat("d", 2),
		NewFilter("fade").With("t", "out").WithFloat("st", 3).WithFloat("d", 2),
	)

	got, err := g.String()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[scaled1]fade=t=in:st=0:d=2,fade=t=out:st=3:d=2[v1]"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGraphString_Empty(t *testing.T) {
	g := &Graph{}
	if _, err := g.String(); err != ErrEmptyGraph {
		t.Errorf("expected ErrEmptyGraph, got %v", err)
	}
}

func TestGraphString_UnnamedFilter(t *testing.T) {
	g := &Graph{}
	g.Chain("in", "out", Filter{})
	if _, err := g.String(); err != ErrMissingName {
		t.Errorf("expected ErrMissingName, got %v", err)
	}
}

func TestFormatFloat(t *testing.T) {
	cases := map[float64]string{
		5:    "5",
		2.5:  "2.5",
		0.8:  "0.8",
		1.0:  "1",
		0.75: "0.75",
	}
	for in, want := range cases {
		if got := FormatFloat(in); got != want {
			t.Errorf("FormatFloat(%v): expected %q, got %q", in, want, got)
		}
	}
}

func TestEscapePath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain unix path", "/tmp/work/subs.srt", "/tmp/work/subs.srt"},
		{"windows drive", `C:\media\subs.srt`, `C\:/media/subs.srt`},
		{"colon in name", "/tmp/a:b.srt", `/tmp/a\:b.srt`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EscapePath(tc.in)
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
			// No unescaped colon may survive.
			stripped := strings.ReplaceAll(got, `\:`, "")
			if strings.Contains(stripped, ":") {
				t.Errorf("unescaped colon in %q", got)
			}
		})
	}
}

func TestEscapePath_Idempotent(t *testing.T) {
	once := EscapePath(`C:\media\subs.srt`)
	twice := EscapePath(once)
	if once != twice {
		t.Errorf("escaping is not idempotent: %q vs %q", once, twice)
	}
}
