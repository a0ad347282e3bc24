package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Replaced in tests to interrupt an operation between its steps.
var (
	patchDocument = PatchDocument
	removeImage   = RemoveImage
)

// MoveImageDir moves every image directly inside sourceDir into the images
// directory of targetDir. Other files and subdirectories are ignored.
func MoveImageDir(sourceDir, targetDir string, opts *Options) *Result {
	result := &Result{}
	info, err := os.Stat(sourceDir)
	if err != nil {
		result.report(opts, ProblemMissingSource, sourceDir, fmt.Errorf("source directory does not exist: %w", err))
		return result
	}
	if !info.IsDir() {
		result.report(opts, ProblemMissingSource, sourceDir, errors.New("source is not a directory"))
		return result
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		result.report(opts, ProblemIO, sourceDir, err)
		return result
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || !opts.IsImage(e.Name()) {
			continue
		}
		file := filepath.Join(sourceDir, e.Name())
		opts.logInfo("moving file", "path", file)
		result.merge(MoveImage(file, targetDir, opts))
	}
	return result
}

// MoveImage moves image into the images directory of targetDir and rewrites
// the links of every document in the image's origin directory (the
// grandparent of the image) that points at it.
//
// The image is copied and all referencing documents are rewritten before the
// original is deleted. If any document cannot be read or rewritten the
// original is kept, so the links that were not updated still resolve.
func MoveImage(image, targetDir string, opts *Options) *Result {
	result := &Result{}
	if !fileExists(image) {
		result.report(opts, ProblemMissingSource, image, errors.New("image does not exist"))
		return result
	}
	imgAbs, err := realPath(image)
	if err != nil {
		result.report(opts, ProblemIO, image, err)
		return result
	}
	originDir := filepath.Dir(filepath.Dir(imgAbs))

	docs, err := DocumentsIn(originDir, opts)
	if err != nil {
		result.report(opts, ProblemIO, originDir, err)
		return result
	}
	referencing, problems := FindReferencing(filepath.Base(imgAbs), docs, opts)
	result.Problems = append(result.Problems, problems...)
	// An unreadable document may link the image too.
	keepSource := len(problems) > 0

	copied, err := CopyImage(imgAbs, targetDir, opts)
	if err != nil {
		result.report(opts, copyProblemKind(err), image, err)
		return result
	}
	if samePath(copied, imgAbs) {
		opts.logInfo("image already in place", "path", copied)
		return result
	}
	result.Copied = append(result.Copied, Relocation{From: imgAbs, To: copied})

	for _, doc := range referencing {
		docDir := filepath.Dir(doc)
		rewritten, err := patchDocument(doc, func(l Link) (string, bool) {
			if filepath.IsAbs(l.Path) || !samePath(filepath.Join(docDir, l.Path), imgAbs) {
				return "", false
			}
			return relativeLink(docDir, copied, l.Path), true
		}, opts)
		if err != nil {
			result.report(opts, ProblemIO, doc, err)
			keepSource = true
			continue
		}
		result.Rewritten = append(result.Rewritten, rewritten...)
	}
	if keepSource {
		opts.logger().Warn("keeping original image, not every reference was rewritten", "path", imgAbs)
		return result
	}

	if err := removeImage(imgAbs, opts); err != nil {
		result.report(opts, ProblemCleanup, imgAbs, err)
		return result
	}
	result.Removed = append(result.Removed, imgAbs)
	return result
}

// relativeLink expresses target relative to fromDir, keeping a leading "./"
// when the link it replaces had one.
func relativeLink(fromDir, target, oldPath string) string {
	rel, err := filepath.Rel(fromDir, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(oldPath, "./") && !strings.HasPrefix(rel, "..") {
		rel = "./" + rel
	}
	return rel
}

func copyProblemKind(err error) ProblemKind {
	var ce *collisionError
	if errors.As(err, &ce) {
		return ProblemCollision
	}
	return ProblemIO
}

// fileExists checks if a file exists at the given path.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
