// router-checker scans Go source for direct imports of LLM provider SDK
// packages outside internal/llmrouter. Every provider call must go through
// the router so that audit logging, caching and circuit breaking
// apply uniformly — a package that imports a provider SDK directly is a
// signal that a call site bypassed the router.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// forbiddenImportPatterns match provider SDK module paths. Any of these
// found outside the allowed directories below is a violation.
var forbiddenImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"github\.com/anthropics/`),
	regexp.MustCompile(`"github\.com/sashabaranov/`),
	regexp.MustCompile(`"github\.com/ollama/`),
}

// allowedDirs are the only places a provider SDK import is legitimate:
// the router's own provider adapters.
var allowedDirs = []string{
	filepath.Join("internal", "llmrouter"),
}

type violation struct {
	file    string
	line    int
	imports string
}

func main() {
	dir := flag.String("dir", ".", "directory to scan")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	var violations []violation
	err := filepath.Walk(*dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		if strings.Contains(path, string(filepath.Separator)+"_examples"+string(filepath.Separator)) {
			return nil
		}
		if isAllowed(path, *dir) {
			return nil
		}
		vs, err := scanFile(path)
		if err != nil {
			return nil
		}
		violations = append(violations, vs...)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "walk %s: %v\n", *dir, err)
		os.Exit(2)
	}

	printReport(violations, *verbose)
	if len(violations) > 0 {
		os.Exit(1)
	}
}

func isAllowed(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, allowed := range allowedDirs {
		if strings.HasPrefix(rel, allowed+string(filepath.Separator)) || rel == allowed {
			return true
		}
	}
	return false
}

func scanFile(path string) ([]violation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []violation
	scanner := bufio.NewScanner(f)
	lineNum := 0
	inImportBlock := false
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "import (") {
			inImportBlock = true
			continue
		}
		if inImportBlock && trimmed == ")" {
			inImportBlock = false
			continue
		}
		if !inImportBlock && !strings.HasPrefix(trimmed, "import ") {
			continue
		}

		for _, pattern := range forbiddenImportPatterns {
			if pattern.MatchString(line) {
				importMatch := regexp.MustCompile(`"([^"]+)"`).FindStringSubmatch(line)
				importPath := ""
				if len(importMatch) > 1 {
					importPath = importMatch[1]
				}
				out = append(out, violation{file: path, line: lineNum, imports: importPath})
			}
		}
	}
	return out, scanner.Err()
}

func printReport(violations []violation, verbose bool) {
	fmt.Println("================================================================================")
	fmt.Println("ROUTER CHECKER REPORT")
	fmt.Println("================================================================================")
	fmt.Println()
	fmt.Println("LLM provider SDKs must only be imported by internal/llmrouter's provider")
	fmt.Println("adapters. Any other package importing a provider SDK directly bypasses the")
	fmt.Println("router's caching, circuit breaking and audit logging.")
	fmt.Println()

	if len(violations) == 0 {
		fmt.Println("no stray provider SDK imports found")
		return
	}

	fmt.Printf("found %d stray provider SDK imports\n\n", len(violations))

	byFile := make(map[string][]violation)
	for _, v := range violations {
		byFile[v.file] = append(byFile[v.file], v)
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Printf("%s\n", file)
		for _, v := range byFile[file] {
			fmt.Printf("  line %d: imports %s\n", v.line, v.imports)
		}
	}
}
