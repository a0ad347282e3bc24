package core

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ImagesDir returns the directory images are relocated into for target:
// <target>/images, or target itself when it is already named images.
func ImagesDir(target string, opts *Options) (string, error) {
	abs, err := realPath(target)
	if err != nil {
		return "", err
	}
	name := opts.config().ImagesDir
	if filepath.Base(abs) == name {
		return abs, nil
	}
	return filepath.Join(abs, name), nil
}

// CopyImage copies image into the images directory of target, creating it if
// needed, and returns the absolute path of the copy. The original is left in
// place and no links are touched. An existing destination with identical
// content counts as already copied; different content is a collision.
func CopyImage(image, target string, opts *Options) (string, error) {
	dir, err := ImagesDir(target, opts)
	if err != nil {
		return "", err
	}
	opts.logInfo("copying image", "image", image, "to", dir)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		opts.logInfo("images directory does not exist, creating it", "dir", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	dst := filepath.Join(dir, filepath.Base(image))
	srcInfo, err := os.Stat(image)
	if err != nil {
		return "", err
	}
	if dstInfo, err := os.Stat(dst); err == nil {
		if os.SameFile(srcInfo, dstInfo) {
			return dst, nil
		}
		same, err := sameContent(image, dst)
		if err != nil {
			return "", err
		}
		if !same {
			return "", &collisionError{path: dst}
		}
		opts.logDebug("identical image already at destination", "path", dst)
		return dst, nil
	}

	if err := copyFile(image, dst, srcInfo.Mode().Perm()); err != nil {
		return "", fmt.Errorf("copying %s to %s: %w", image, dst, err)
	}
	return dst, nil
}

// RemoveImage deletes the original image and, if its parent directory is
// left empty, removes that directory too. Only the delete failure is
// reported; a failed directory removal is swallowed.
func RemoveImage(image string, opts *Options) error {
	if err := os.Remove(image); err != nil {
		return fmt.Errorf("removing %s: %w", image, err)
	}
	opts.logInfo("removed image", "path", image)
	removeIfEmpty(filepath.Dir(image), opts)
	return nil
}

// removeIfEmpty removes dir when it has no entries (best-effort).
func removeIfEmpty(dir string, opts *Options) {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err == nil {
		opts.logInfo("removed empty directory", "dir", dir)
	}
}

type collisionError struct {
	path string
}

func (e *collisionError) Error() string {
	return fmt.Sprintf("a different file already exists at %s", e.path)
}

// copyFile copies src to dst with the given permission bits.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	// OpenFile applies umask on creation.
	return os.Chmod(dst, perm)
}

func sameContent(a, b string) (bool, error) {
	da, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

// realPath returns the absolute path of p with symlinks resolved. When p
// does not exist yet, its longest existing ancestor is resolved and the
// missing tail is appended.
func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	var tail []string
	dir := abs
	for {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		tail = append(tail, filepath.Base(dir))
		dir = parent
	}
}
