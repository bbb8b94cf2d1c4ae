package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// objectDecl matches the first AL object declaration of a source file, e.g.
// `table 50100 "My Table"` or `codeunit 50101 MyCodeunit`.
var objectDecl = regexp.MustCompile(`(?mi)^\s*(table|page|codeunit|report|query|xmlport|enum|interface|controladdin|pageextension|tableextension|enumextension|reportextension|permissionset|permissionsetextension|entitlement)\s+(?:\d+|")`)

// Directories never scanned for sources. Symbol and package caches contain
// decompiled AL that would distort the counts.
var skippedDirs = map[string]bool{
	".symbols":     true,
	".alpackages":  true,
	".git":         true,
	"node_modules": true,
}

// SourceAnalysis summarizes the AL sources of a project.
type SourceAnalysis struct {
	ALFiles     int
	ObjectTypes map[string]int
	LargestFile string
	LargestSize int64
	HasTests    bool
}

// ScanSources walks the project tree and counts AL objects by type. Files
// that cannot be read are skipped, not fatal.
func ScanSources(dir string) (*SourceAnalysis, error) {
	analysis := &SourceAnalysis{ObjectTypes: make(map[string]int)}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".al") {
			return nil
		}

		analysis.ALFiles++

		info, ierr := d.Info()
		if ierr == nil && info.Size() > analysis.LargestSize {
			analysis.LargestSize = info.Size()
			if rel, rerr := filepath.Rel(dir, path); rerr == nil {
				analysis.LargestFile = rel
			}
		}

		content, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		if m := objectDecl.FindStringSubmatch(string(content)); m != nil {
			analysis.ObjectTypes[strings.ToLower(m[1])]++
		}
		if strings.Contains(strings.ToLower(d.Name()), "test") ||
			strings.Contains(strings.ToUpper(string(content)), "[TEST]") {
			analysis.HasTests = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}
