package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"familycore/internal/core", true},
		{"familycore/pkg/domain", false},
		{"strings", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestPackageImportForbidden(t *testing.T) {
	pred := PackageImportForbidden("/internal/core/")
	cases := []struct {
		in   string
		want bool
	}{
		{"familycore/internal/core", true},
		{"familycore/internal/core/sub", true},
		{"familycore/internal/corefoo", false},
		{"familycore/internal/config", false},
	}
	for _, c := range cases {
		if got := pred(c.in); got != c.want {
			t.Fatalf("PackageImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestThirdPartyImport(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"encoding/json", false},
		{"familycore", false},
		{"familycore/pkg/domain", false},
		{"go.uber.org/zap", true},
		{"golang.org/x/text/unicode/norm", true},
		{"github.com/spf13/cobra", true},
	}
	for _, c := range cases {
		if got := ThirdPartyImport(c.in); got != c.want {
			t.Fatalf("ThirdPartyImport(%q)=%v want %v", c.in, got, c.want)
		}
	}
	if !AnyOf(InternalImportForbidden, ThirdPartyImport)("go.uber.org/zap") {
		t.Fatalf("AnyOf must match when one predicate does")
	}
	if AnyOf()("fmt") {
		t.Fatalf("empty AnyOf matches nothing")
	}
}

// TestAssertNoDirectImports exercises the success path by creating a tiny temp package with safe imports.
func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	test := []byte("package tmp\nimport \"familycore/internal/core\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), test, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, InternalImportForbidden, "test files are ignored")
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestDirectViolationsReported(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport (\n\t\"fmt\"\n\t\"familycore/internal/core\"\n)\nvar _ = fmt.Sprint\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil || len(viols) != 1 || viols[0] != "familycore/internal/core (in x.go)" {
		t.Fatalf("unexpected violations %v err=%v", viols, err)
	}
	var rec recordingFatal
	failIfDirectViolations(&rec, "layering", viols)
	if !strings.Contains(rec.msg, "layering") || !strings.Contains(rec.msg, "x.go") {
		t.Fatalf("unexpected failure message %q", rec.msg)
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
