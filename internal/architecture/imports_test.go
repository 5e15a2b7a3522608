package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// TestImportBoundaries keeps the layering honest: the pure engine stays
// pure, platform utilities stay below the domain, and nothing below the
// HTTP surface reaches back up into it.
func TestImportBoundaries(t *testing.T) {
	t.Helper()

	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := findModuleRoot(start)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}

	modulePath, err := readModulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read module path: %v", err)
	}

	internalDir := filepath.Join(root, "internal")
	fset := token.NewFileSet()

	type violation struct {
		file string
		imp  string
		rule string
	}
	var violations []violation

	walkErr := filepath.WalkDir(internalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "vendor", "node_modules", ".gocache":
				return filepath.SkipDir
			default:
				return nil
			}
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		layer := layerFor(rel)
		if layer == "" {
			return nil
		}
		disallowed := disallowedImports(modulePath, layer)
		if len(disallowed) == 0 {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			if spec == nil || spec.Path == nil {
				continue
			}
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			for _, bad := range disallowed {
				if strings.HasPrefix(imp, bad) {
					violations = append(violations, violation{file: rel, imp: imp, rule: bad})
					break
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk internal/: %v", walkErr)
	}

	if len(violations) > 0 {
		var b strings.Builder
		b.WriteString("import boundary violations:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s imports %q (disallowed: %q)\n", v.file, v.imp, v.rule)
		}
		t.Fatal(b.String())
	}
}

func layerFor(rel string) string {
	switch {
	case strings.HasPrefix(rel, "internal/compliance/"):
		return "engine"
	case strings.HasPrefix(rel, "internal/catalog/"):
		return "catalog"
	case strings.HasPrefix(rel, "internal/pkg/"):
		return "pkg"
	case strings.HasPrefix(rel, "internal/domain/"):
		return "domain"
	case strings.HasPrefix(rel, "internal/data/"):
		return "data"
	case strings.HasPrefix(rel, "internal/services/"):
		return "services"
	case strings.HasPrefix(rel, "internal/jobs/"):
		return "jobs"
	case strings.HasPrefix(rel, "internal/handlers/"), strings.HasPrefix(rel, "internal/middleware/"):
		return "http"
	default:
		return ""
	}
}

func disallowedImports(modulePath string, layer string) []string {
	mp := modulePath + "/internal/"
	switch layer {
	case "engine":
		// The resolver/scorer/crosswalk/deorbit core touches nothing
		// above it; the pkg sentinels are the only internal import.
		return []string{
			mp + "data/", mp + "domain/", mp + "services/",
			mp + "handlers/", mp + "jobs/", mp + "server/", mp + "app/",
			mp + "catalog/", mp + "middleware/", mp + "realtime/",
			mp + "satellites/", mp + "observability/", mp + "clients/",
		}
	case "catalog":
		return []string{
			mp + "data/", mp + "domain/", mp + "services/",
			mp + "handlers/", mp + "jobs/", mp + "server/", mp + "app/",
		}
	case "pkg":
		return []string{
			mp + "data/", mp + "domain/", mp + "services/",
			mp + "handlers/", mp + "jobs/", mp + "server/", mp + "app/",
			mp + "compliance/", mp + "catalog/",
		}
	case "domain":
		return []string{
			mp + "data/", mp + "services/", mp + "handlers/",
			mp + "jobs/", mp + "server/", mp + "app/",
		}
	case "data":
		return []string{
			mp + "services/", mp + "handlers/", mp + "jobs/",
			mp + "server/", mp + "app/",
		}
	case "services":
		return []string{mp + "handlers/", mp + "server/", mp + "app/"}
	case "jobs":
		return []string{mp + "handlers/", mp + "server/", mp + "app/"}
	case "http":
		return []string{mp + "server/", mp + "app/"}
	default:
		return nil
	}
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", start)
		}
		dir = parent
	}
}

func readModulePath(goModPath string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mp := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if mp == "" {
			break
		}
		return mp, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module path not found in %s", goModPath)
}
