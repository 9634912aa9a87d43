package core

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// layerRule forbids packages outside allowed from importing target.
type layerRule struct {
	name    string
	target  string
	allowed []string
}

var layerRules = []layerRule{
	{
		name:    "blob drivers are wrapped by the blob facade",
		target:  "familycore/internal/infra/blob",
		allowed: []string{"familycore/internal/blob", "familycore/internal/infra/blob"},
	},
	{
		name:    "persistence drivers are selected by OpenBackend",
		target:  "familycore/internal/infra/persistence",
		allowed: []string{"familycore/internal/core", "familycore/internal/infra/persistence"},
	},
	{
		name:    "drivers and the domain never depend on the store",
		target:  "familycore/internal/core",
		allowed: []string{"familycore/internal/core", "familycore/internal/config", "familycore/internal/seed", "familycore/cmd", "familycore/testutil"},
	},
	{
		name:    "only the CLI wires configuration",
		target:  "familycore/internal/config",
		allowed: []string{"familycore/internal/config", "familycore/cmd", "familycore/testutil"},
	},
	{
		name:    "nothing imports a command",
		target:  "familycore/cmd",
		allowed: []string{"familycore/cmd"},
	},
}

func TestPackageLayering(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "familycore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if len(pkgs) == 0 {
		t.Fatalf("no packages loaded")
	}

	for _, rule := range layerRules {
		t.Run(rule.name, func(t *testing.T) {
			seen := make(map[string]struct{})
			for _, pkg := range pkgs {
				path := basePkgPath(pkg.PkgPath)
				if underAny(path, rule.allowed) {
					continue
				}
				for importPath := range pkg.Imports {
					if under(importPath, rule.target) {
						seen[path+": "+importPath] = struct{}{}
					}
				}
			}
			if len(seen) == 0 {
				return
			}
			violations := make([]string, 0, len(seen))
			for v := range seen {
				violations = append(violations, v)
			}
			sort.Strings(violations)
			for _, v := range violations {
				t.Errorf("forbidden import: %s", v)
			}
			t.Fatalf("found %d imports of %s outside %v", len(violations), rule.target, rule.allowed)
		})
	}
}

func TestLayerRuleMatching(t *testing.T) {
	cases := map[string]string{
		"familycore/internal/core.test":           "familycore/internal/core",
		"familycore/internal/infra/blob/fs_test":  "familycore/internal/infra/blob/fs",
		"familycore/internal/infra/blob/fs":       "familycore/internal/infra/blob/fs",
		"familycore/internal/infra/persistence/x": "familycore/internal/infra/persistence/x",
	}
	for in, want := range cases {
		if got := basePkgPath(in); got != want {
			t.Fatalf("basePkgPath(%q) = %q, want %q", in, got, want)
		}
	}
	if under("familycore/internal/corefoo", "familycore/internal/core") {
		t.Fatalf("sibling prefix must not match")
	}
	if !under("familycore/internal/infra/blob/s3", "familycore/internal/infra/blob") {
		t.Fatalf("sub package must match")
	}
}

// basePkgPath maps test variants (pkg_test, pkg.test) to the package they test.
func basePkgPath(path string) string {
	path = strings.TrimSuffix(path, ".test")
	return strings.TrimSuffix(path, "_test")
}

func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func underAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if under(path, p) {
			return true
		}
	}
	return false
}
