package widget

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
)

const modulePrefix = "clipstash/internal/"

// layers orders the internal packages; a package may import only packages
// from a strictly lower layer.
var layers = map[string]int{
	"models":    0,
	"config":    0,
	"format":    0,
	"sqlitedb":  0,
	"signature": 1,
	"transcode": 1,
	"history":   1,
	"blobstore": 1,
	"store":     1,
	"blobproto": 2,
	"legacy":    2,
	"ingest":    3,
	"widget":    4,
}

func TestInternalPackagesRespectLayers(t *testing.T) {
	root := internalDir(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read %s: %v", root, err)
	}

	fset := token.NewFileSet()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pkg := entry.Name()
		layer, ok := layers[pkg]
		if !ok {
			t.Fatalf("package %s has no layer assigned", pkg)
		}
		files, err := filepath.Glob(filepath.Join(root, pkg, "*.go"))
		if err != nil {
			t.Fatalf("glob %s: %v", pkg, err)
		}
		for _, path := range files {
			if strings.HasSuffix(path, "_test.go") {
				continue
			}
			file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", path, err)
			}
			for _, imp := range file.Imports {
				importPath, err := strconv.Unquote(imp.Path.Value)
				if err != nil || !strings.HasPrefix(importPath, modulePrefix) {
					continue
				}
				dep := strings.TrimPrefix(importPath, modulePrefix)
				depLayer, ok := layers[dep]
				if !ok {
					t.Fatalf("%s imports unknown package %s", filepath.Base(path), dep)
				}
				if depLayer >= layer {
					t.Fatalf("%s/%s imports %s (layer %d >= %d)", pkg, filepath.Base(path), dep, depLayer, layer)
				}
			}
		}
	}
}

func internalDir(t *testing.T) string {
	t.Helper()
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Dir(filepath.Dir(self))
}
