// Package testutil provides architecture guards shared by package tests:
// import rules for a single directory and importer rules across the module.
package testutil

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// ModulePath is the import path of this module.
const ModulePath = "github.com/carrotIndustries/horizon"

type fatalLogger interface {
	Helper()
	Fatalf(format string, args ...any)
}

// AssertNoDirectImports parses the non-test .go files in dir and fails if an
// import path satisfies forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	assertNoDirectImports(t, dir, forbidden, reason)
}

func assertNoDirectImports(t fatalLogger, dir string, forbidden func(string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

func directImportViolations(dir string, forbidden func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if forbidden(path) {
				viols = append(viols, path+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

// AssertNoImporters loads the packages matched by pattern, test variants
// included, and fails if a package outside the allowed prefixes imports
// target or a package below it.
func AssertNoImporters(t testing.TB, pattern, target string, allowed ...string) {
	assertNoImporters(t, pattern, target, allowed...)
}

func assertNoImporters(t fatalLogger, pattern, target string, allowed ...string) {
	t.Helper()
	viols, err := importerViolations(pattern, target, allowed)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden imports of %s:\n%s", target, strings.Join(viols, "\n"))
	}
}

func importerViolations(pattern, target string, allowed []string) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if anyPrefix(pkg.PkgPath, allowed) || HasPathPrefix(pkg.PkgPath, target) {
			continue
		}
		for path := range pkg.Imports {
			if HasPathPrefix(path, target) {
				seen[pkg.PkgPath+": "+path] = struct{}{}
			}
		}
	}
	viols := make([]string, 0, len(seen))
	for v := range seen {
		viols = append(viols, v)
	}
	sort.Strings(viols)
	return viols, nil
}

// HasPathPrefix reports whether path is prefix or a package below it.
func HasPathPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func anyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if HasPathPrefix(path, p) {
			return true
		}
	}
	return false
}

// InternalImport matches import paths that contain an internal element.
func InternalImport(path string) bool {
	return strings.Contains(path, "/internal/") || strings.HasSuffix(path, "/internal")
}

// ThirdPartyExcept returns a predicate matching non standard library imports
// outside the allowed module prefixes.
func ThirdPartyExcept(allowed ...string) func(string) bool {
	return func(path string) bool {
		first, _, _ := strings.Cut(path, "/")
		if !strings.Contains(first, ".") {
			return false
		}
		return !anyPrefix(path, allowed)
	}
}

// AnyOf matches when one of preds does.
func AnyOf(preds ...func(string) bool) func(string) bool {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}
