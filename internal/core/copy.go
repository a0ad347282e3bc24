package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// docCopy describes a document copied by copyDocument.
type docCopy struct {
	source string
	dest   string
	// images maps each copied original file to its copy, in link order.
	// Files already in place are not listed.
	images []Relocation
}

// CopyDocument copies doc into targetDir together with every file it links
// to. Linked files land in the images directory of targetDir. Only the copy
// is rewritten to point at them; the original document and its files are
// left untouched.
//
// Links to other documents are reported and left unchanged, since the
// relative path between the two documents is not rewritten.
func CopyDocument(doc, targetDir string, opts *Options) *Result {
	result, _ := copyDocument(doc, targetDir, opts)
	return result
}

// MoveDocument copies doc into targetDir like CopyDocument and then removes
// the source document. Copied files that sit one directory below the
// document and that no other document next to it references are removed as
// well. Nothing is removed when the copy recorded any problem.
func MoveDocument(doc, targetDir string, opts *Options) *Result {
	result, c := copyDocument(doc, targetDir, opts)
	if c == nil {
		return result
	}
	if len(result.Problems) > 0 {
		opts.logger().Warn("keeping source document, copy was incomplete", "path", c.source)
		return result
	}

	srcDir := filepath.Dir(c.source)
	siblings, err := DocumentsIn(srcDir, opts)
	if err != nil {
		result.report(opts, ProblemIO, c.source, err)
		return result
	}
	for _, img := range c.images {
		// Only files in a subdirectory of the document's own directory
		// belong to it; anything further away may be linked from elsewhere.
		if !samePath(filepath.Dir(filepath.Dir(img.From)), srcDir) {
			opts.logInfo("linked file lives outside the document's directory, keeping it", "path", img.From)
			continue
		}
		if !IsOnlyReferrer(c.source, siblings, filepath.Base(img.From), opts) {
			opts.logInfo("image still referenced by another document, keeping it", "path", img.From)
			continue
		}
		if err := removeImage(img.From, opts); err != nil {
			result.report(opts, ProblemCleanup, img.From, err)
			continue
		}
		result.Removed = append(result.Removed, img.From)
	}

	if err := os.Remove(c.source); err != nil {
		result.report(opts, ProblemCleanup, c.source, err)
		return result
	}
	opts.logInfo("removed source document", "path", c.source)
	result.Removed = append(result.Removed, c.source)
	return result
}

func copyDocument(doc, targetDir string, opts *Options) (*Result, *docCopy) {
	result := &Result{}

	targetInfo, err := os.Stat(targetDir)
	if err != nil {
		result.report(opts, ProblemMissingSource, targetDir, fmt.Errorf("target directory does not exist: %w", err))
		return result, nil
	}
	if !targetInfo.IsDir() {
		result.report(opts, ProblemMissingSource, targetDir, errors.New("target is not a directory"))
		return result, nil
	}
	docInfo, err := os.Stat(doc)
	if err != nil {
		result.report(opts, ProblemMissingSource, doc, fmt.Errorf("document does not exist: %w", err))
		return result, nil
	}
	if !docInfo.Mode().IsRegular() || !opts.IsDocument(doc) {
		result.report(opts, ProblemMissingSource, doc, fmt.Errorf("not a %s document", opts.config().DocumentExt))
		return result, nil
	}

	docAbs, err := realPath(doc)
	if err != nil {
		result.report(opts, ProblemIO, doc, err)
		return result, nil
	}
	targetAbs, err := realPath(targetDir)
	if err != nil {
		result.report(opts, ProblemIO, targetDir, err)
		return result, nil
	}
	dest := filepath.Join(targetAbs, filepath.Base(docAbs))
	if samePath(dest, docAbs) {
		result.report(opts, ProblemCollision, doc, errors.New("document is already in the target directory"))
		return result, nil
	}

	content, err := os.ReadFile(docAbs)
	if err != nil {
		result.report(opts, ProblemIO, doc, err)
		return result, nil
	}
	opts.logInfo("copying document", "document", docAbs, "to", dest)
	if err := copyFile(docAbs, dest, docInfo.Mode().Perm()); err != nil {
		result.report(opts, ProblemIO, dest, err)
		return result, nil
	}
	result.Copied = append(result.Copied, Relocation{From: docAbs, To: dest})
	c := &docCopy{source: docAbs, dest: dest}

	docDir := filepath.Dir(docAbs)
	copies := make(map[string]string)
	for l := range Links(string(content)) {
		if filepath.IsAbs(l.Path) {
			opts.logDebug("leaving absolute link unchanged", "link", l.Raw())
			continue
		}
		resolved := filepath.Join(docDir, l.Path)
		if opts.IsDocument(l.Path) {
			result.report(opts, ProblemUnsupportedLink, docAbs,
				fmt.Errorf("link to %s will break: links between documents are not rewritten", l.Path))
			continue
		}
		if _, done := copies[resolved]; done {
			continue
		}
		info, err := os.Stat(resolved)
		if err != nil {
			result.report(opts, ProblemMissingReference, resolved, fmt.Errorf("linked from %s: %w", docAbs, err))
			continue
		}
		if !info.Mode().IsRegular() {
			result.report(opts, ProblemUnsupportedLink, docAbs,
				fmt.Errorf("link to %s will break: only regular files are copied", l.Path))
			continue
		}
		if !opts.IsImage(resolved) {
			opts.logDebug("copying linked file that is not an image", "link", l.Raw())
		}
		copied, err := CopyImage(resolved, targetAbs, opts)
		if err != nil {
			result.report(opts, copyProblemKind(err), resolved, err)
			continue
		}
		copies[resolved] = copied
		if src, err := realPath(resolved); err == nil && samePath(src, copied) {
			// Already in the target's images directory; linked in place.
			opts.logDebug("linked file already in place", "path", copied)
			continue
		}
		reloc := Relocation{From: resolved, To: copied}
		c.images = append(c.images, reloc)
		result.Copied = append(result.Copied, reloc)
	}
	if len(copies) == 0 {
		return result, c
	}

	// Links are resolved against the original directory: the copy's text
	// is still identical to the original at this point.
	rewritten, err := PatchDocument(dest, func(l Link) (string, bool) {
		if filepath.IsAbs(l.Path) {
			return "", false
		}
		copied, ok := copies[filepath.Join(docDir, l.Path)]
		if !ok {
			return "", false
		}
		return relativeLink(targetAbs, copied, l.Path), true
	}, opts)
	if err != nil {
		result.report(opts, ProblemIO, dest, err)
		return result, c
	}
	result.Rewritten = append(result.Rewritten, rewritten...)
	return result, c
}
