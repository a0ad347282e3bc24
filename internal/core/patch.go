package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// RewriteFunc returns the replacement path for a link, or ok=false to leave
// the link unchanged.
type RewriteFunc func(l Link) (newPath string, ok bool)

// RewriteLinks replaces the PATH of every link in content for which fn
// returns ok. Text outside link paths is copied verbatim.
func RewriteLinks(content string, fn RewriteFunc) (string, []RewrittenLink) {
	var out strings.Builder
	var rewritten []RewrittenLink
	last := 0
	for l := range Links(content) {
		newPath, ok := fn(l)
		if !ok || newPath == l.Path {
			continue
		}
		out.WriteString(content[last:l.PathStart])
		out.WriteString(newPath)
		last = l.PathEnd

		nl := l
		nl.Path = newPath
		rewritten = append(rewritten, RewrittenLink{OldLink: l.Raw(), NewLink: nl.Raw()})
	}
	if len(rewritten) == 0 {
		return content, nil
	}
	out.WriteString(content[last:])
	return out.String(), rewritten
}

// PatchDocument applies fn to every link of the document at path and writes
// the document back when anything changed. The write replaces the file
// atomically so an interrupted write never leaves it truncated.
func PatchDocument(path string, fn RewriteFunc, opts *Options) ([]RewrittenLink, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	patched, rewritten := RewriteLinks(string(original), fn)
	if len(rewritten) == 0 {
		return nil, nil
	}
	// Write through a symlinked document instead of replacing the link.
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(target, []byte(patched), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	for i := range rewritten {
		rewritten[i].File = path
	}
	opts.logInfo("patched document", "path", path, "links", len(rewritten))
	if opts != nil && (opts.Verbose || opts.Debug) {
		opts.logger().Info("diff", "path", path, "patch", textDiff(string(original), patched))
	}
	return rewritten, nil
}

// ReplacePath rewrites every link whose path is exactly oldPath to newPath.
func ReplacePath(path, oldPath, newPath string, opts *Options) ([]RewrittenLink, error) {
	opts.logInfo("updating links", "document", path, "old", oldPath, "new", newPath)
	return PatchDocument(path, func(l Link) (string, bool) {
		return newPath, l.Path == oldPath
	}, opts)
}

// writeFileAtomic writes data to a temp file beside path and renames it over
// path. os.CreateTemp applies 0o600, so the permission bits are set
// explicitly before the rename.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// textDiff renders a unified-style patch between two document versions.
func textDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}
