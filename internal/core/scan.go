package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FindReferencing returns the documents whose raw text contains p.
// This is plain substring containment, not link parsing: it only narrows
// the set of documents that need to be patched. p also matches in its NFC
// and NFD forms. Unreadable candidates are reported and skipped.
func FindReferencing(p string, docs []string, opts *Options) ([]string, []Problem) {
	opts.logDebug("searching references", "needle", p, "candidates", docs)
	forms := needleForms(p)
	var found []string
	var problems []Problem
	for _, doc := range docs {
		content, err := os.ReadFile(doc)
		if err != nil {
			problems = append(problems, Problem{Kind: ProblemMissingSource, Path: doc, Err: err})
			opts.logDebug("cannot read candidate", "path", doc, "err", err)
			continue
		}
		text := string(content)
		for _, f := range forms {
			if strings.Contains(text, f) {
				found = append(found, doc)
				break
			}
		}
	}
	return found, problems
}

// IsOnlyReferrer reports whether doc is the only document among docs whose
// text references p. A candidate that cannot be read counts as referencing.
func IsOnlyReferrer(doc string, docs []string, p string, opts *Options) bool {
	found, problems := FindReferencing(p, docs, opts)
	if len(problems) > 0 {
		return false
	}
	return len(found) == 1 && filepath.Clean(found[0]) == filepath.Clean(doc)
}

// DocumentsIn lists the documents directly inside dir, in directory order
// (sorted by name). Symlinked documents are included; a dangling symlink is
// listed too so that reading it is reported by the scanner.
func DocumentsIn(dir string, opts *Options) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing documents in %s: %w", dir, err)
	}
	var docs []string
	for _, e := range entries {
		if !opts.IsDocument(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case e.Type().IsRegular():
		case e.Type()&fs.ModeSymlink != 0:
			if info, err := os.Stat(path); err == nil && !info.Mode().IsRegular() {
				continue
			}
		default:
			continue
		}
		docs = append(docs, path)
	}
	return docs, nil
}

func needleForms(p string) []string {
	forms := []string{p}
	for _, f := range []string{norm.NFC.String(p), norm.NFD.String(p)} {
		if f != p && (len(forms) < 2 || f != forms[1]) {
			forms = append(forms, f)
		}
	}
	return forms
}

// samePath compares two cleaned absolute paths, ignoring Unicode
// normalization differences.
func samePath(a, b string) bool {
	return norm.NFC.String(filepath.Clean(a)) == norm.NFC.String(filepath.Clean(b))
}
