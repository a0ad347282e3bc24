package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryotapoi/morg/internal/testutil"
)

func copyNotes(t *testing.T) string {
	t.Helper()
	dst := filepath.Join(t.TempDir(), "notes")
	if err := testutil.CopyDir(filepath.Join("..", "..", "testdata", "notes"), dst); err != nil {
		t.Fatalf("copy notes: %v", err)
	}
	return dst
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestMoveImageDir(t *testing.T) {
	root := copyNotes(t)
	result := MoveImageDir(filepath.Join(root, "img"), filepath.Join(root, "dest"), nil)
	if err := result.Err(); err != nil {
		t.Fatalf("unexpected problems: %v", err)
	}

	for _, name := range []string{"pic.png", "chart.jpg"} {
		if !fileExists(filepath.Join(root, "dest", "images", name)) {
			t.Errorf("dest/images/%s should exist", name)
		}
		if fileExists(filepath.Join(root, "img", name)) {
			t.Errorf("img/%s should be removed", name)
		}
	}
	// README.txt is not an image: it stays, and so does img/.
	if !fileExists(filepath.Join(root, "img", "README.txt")) {
		t.Error("non-image file should be left in place")
	}

	a := readFile(t, filepath.Join(root, "a.org"))
	if !strings.Contains(a, "[[file:./dest/images/pic.png]]") {
		t.Errorf("a.org image link not rewritten:\n%s", a)
	}
	if !strings.Contains(a, "[[file:./dest/images/pic.png][the same picture]]") {
		t.Errorf("a.org described link not rewritten:\n%s", a)
	}
	b := readFile(t, filepath.Join(root, "b.org"))
	if !strings.Contains(b, "[[file:dest/images/chart.jpg]]") {
		t.Errorf("b.org link not rewritten:\n%s", b)
	}
	if !strings.Contains(b, "[[file:./a.org][back to A]]") {
		t.Errorf("b.org document link should be untouched:\n%s", b)
	}
}

func TestMoveImageDirScenario(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.org":       "[[file:./img/pic.png]]\n",
		"img/pic.png": "PNG",
	})
	result := MoveImageDir(filepath.Join(root, "img"), filepath.Join(root, "dest"), nil)
	if err := result.Err(); err != nil {
		t.Fatal(err)
	}
	if !fileExists(filepath.Join(root, "dest", "images", "pic.png")) {
		t.Error("dest/images/pic.png should exist")
	}
	if fileExists(filepath.Join(root, "img", "pic.png")) {
		t.Error("img/pic.png should be removed")
	}
	if fileExists(filepath.Join(root, "img")) {
		t.Error("empty img/ should be removed")
	}
	got := readFile(t, filepath.Join(root, "a.org"))
	if got != "[[file:./dest/images/pic.png]]\n" {
		t.Errorf("a.org = %q", got)
	}
	// Every rewritten link must resolve from the document's directory.
	for l := range Links(got) {
		if !fileExists(filepath.Join(root, l.Path)) {
			t.Errorf("link %s does not resolve", l.Raw())
		}
	}
}

func TestMoveImageDirMissingSource(t *testing.T) {
	root := t.TempDir()
	result := MoveImageDir(filepath.Join(root, "nope"), filepath.Join(root, "dest"), nil)
	if !result.HasProblem(ProblemMissingSource) {
		t.Errorf("expected missing-source problem, got %v", result.Problems)
	}
	if fileExists(filepath.Join(root, "dest")) {
		t.Error("nothing should be created for a missing source")
	}
}

func TestMoveImageDirIgnoresSubdirectories(t *testing.T) {
	root := writeTree(t, map[string]string{
		"img/nested/deep.png": "PNG",
	})
	result := MoveImageDir(filepath.Join(root, "img"), filepath.Join(root, "dest"), nil)
	if len(result.Copied) != 0 {
		t.Errorf("nested image should be ignored, copied %v", result.Copied)
	}
	if !fileExists(filepath.Join(root, "img", "nested", "deep.png")) {
		t.Error("nested image should stay")
	}
}

func TestMoveImageTargetNamedImages(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.org":       "[[file:img/pic.png]]\n",
		"img/pic.png": "PNG",
	})
	result := MoveImage(filepath.Join(root, "img", "pic.png"), filepath.Join(root, "images"), nil)
	if err := result.Err(); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(root, "a.org")); got != "[[file:images/pic.png]]\n" {
		t.Errorf("a.org = %q", got)
	}
}

func TestMoveImageOnlyRewritesMatchingLink(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.org":              "[[file:img/pic.png]] [[file:img/pic.png.orig]] [[file:other/pic.png]]\n",
		"img/pic.png":        "PNG",
		"img/pic.png.orig":   "ORIG",
		"other/pic.png":      "OTHER",
		"unrelated/note.org": "[[file:../img/pic.png]]\n",
	})
	result := MoveImage(filepath.Join(root, "img", "pic.png"), filepath.Join(root, "dest"), nil)
	if err := result.Err(); err != nil {
		t.Fatal(err)
	}
	want := "[[file:dest/images/pic.png]] [[file:img/pic.png.orig]] [[file:other/pic.png]]\n"
	if got := readFile(t, filepath.Join(root, "a.org")); got != want {
		t.Errorf("a.org = %q, want %q", got, want)
	}
	// Documents outside the origin directory are not scanned.
	if got := readFile(t, filepath.Join(root, "unrelated", "note.org")); got != "[[file:../img/pic.png]]\n" {
		t.Errorf("unrelated/note.org = %q", got)
	}
	if len(result.Rewritten) != 1 {
		t.Errorf("rewritten = %+v, want 1", result.Rewritten)
	}
}

// stubPatchDocument replaces patchDocument for the duration of the test.
func stubPatchDocument(t *testing.T, fn func(path string, rw RewriteFunc, opts *Options) ([]RewrittenLink, error)) {
	t.Helper()
	orig := patchDocument
	patchDocument = fn
	t.Cleanup(func() { patchDocument = orig })
}

// stubRemoveImage replaces removeImage for the duration of the test.
func stubRemoveImage(t *testing.T, fn func(image string, opts *Options) error) {
	t.Helper()
	orig := removeImage
	removeImage = fn
	t.Cleanup(func() { removeImage = orig })
}

func assertLinksResolve(t *testing.T, root string, docs ...string) {
	t.Helper()
	for _, doc := range docs {
		content := readFile(t, filepath.Join(root, doc))
		for l := range Links(content) {
			if !fileExists(filepath.Join(root, l.Path)) {
				t.Errorf("%s: link %s is broken", doc, l.Raw())
			}
		}
	}
}

// A document that cannot be rewritten keeps the original image alive, and
// no link is broken.
func TestMoveImageKeepsSourceWhenPatchFails(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.org":       "[[file:img/pic.png]]\n",
		"b.org":       "[[file:img/pic.png]]\n",
		"img/pic.png": "PNG",
	})
	stubPatchDocument(t, func(path string, rw RewriteFunc, opts *Options) ([]RewrittenLink, error) {
		if filepath.Base(path) == "b.org" {
			return nil, errors.New("disk full")
		}
		return PatchDocument(path, rw, opts)
	})
	removed := false
	stubRemoveImage(t, func(image string, opts *Options) error {
		removed = true
		return RemoveImage(image, opts)
	})

	result := MoveImage(filepath.Join(root, "img", "pic.png"), filepath.Join(root, "dest"), nil)
	if !result.HasProblem(ProblemIO) {
		t.Fatalf("expected io problem, got %v", result.Problems)
	}
	if removed || !fileExists(filepath.Join(root, "img", "pic.png")) {
		t.Fatal("source image must not be deleted when a reference was not rewritten")
	}
	if got := readFile(t, filepath.Join(root, "a.org")); got != "[[file:dest/images/pic.png]]\n" {
		t.Errorf("a.org = %q", got)
	}
	if got := readFile(t, filepath.Join(root, "b.org")); got != "[[file:img/pic.png]]\n" {
		t.Errorf("b.org = %q", got)
	}
	assertLinksResolve(t, root, "a.org", "b.org")
}

// Interrupting MoveImage right before the delete leaves every link working:
// the copy exists and all documents already point at it.
func TestMoveImageInterruptedBeforeDelete(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.org":       "[[file:img/pic.png]]\n",
		"b.org":       "[[file:./img/pic.png][pic]]\n",
		"img/pic.png": "PNG",
	})
	stubRemoveImage(t, func(image string, opts *Options) error {
		if !fileExists(filepath.Join(root, "dest", "images", "pic.png")) {
			t.Error("delete attempted before the copy exists")
		}
		if got := readFile(t, filepath.Join(root, "a.org")); got != "[[file:dest/images/pic.png]]\n" {
			t.Errorf("delete attempted before a.org was rewritten: %q", got)
		}
		if got := readFile(t, filepath.Join(root, "b.org")); got != "[[file:./dest/images/pic.png][pic]]\n" {
			t.Errorf("delete attempted before b.org was rewritten: %q", got)
		}
		return errors.New("interrupted")
	})

	result := MoveImage(filepath.Join(root, "img", "pic.png"), filepath.Join(root, "dest"), nil)
	if !result.HasProblem(ProblemCleanup) {
		t.Fatalf("expected cleanup problem, got %v", result.Problems)
	}
	if len(result.Removed) != 0 {
		t.Errorf("removed = %v, want none", result.Removed)
	}
	assertLinksResolve(t, root, "a.org", "b.org")
}

func TestMoveImageKeepsSourceWhenCandidateUnreadable(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.org":       "[[file:img/pic.png]]\n",
		"img/pic.png": "PNG",
	})
	if err := os.Symlink(filepath.Join(root, "gone.org"), filepath.Join(root, "b.org")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result := MoveImage(filepath.Join(root, "img", "pic.png"), filepath.Join(root, "dest"), nil)
	if !result.HasProblem(ProblemMissingSource) {
		t.Fatalf("expected missing-source problem for b.org, got %v", result.Problems)
	}
	if !fileExists(filepath.Join(root, "img", "pic.png")) {
		t.Fatal("source image must be kept when a candidate could not be read")
	}
	if got := readFile(t, filepath.Join(root, "a.org")); got != "[[file:dest/images/pic.png]]\n" {
		t.Errorf("a.org = %q", got)
	}
}

func TestMoveImageRewritesSymlinkedDocument(t *testing.T) {
	root := writeTree(t, map[string]string{
		"store/a.org": "[[file:img/pic.png]]\n",
		"img/pic.png": "PNG",
	})
	link := filepath.Join(root, "a.org")
	if err := os.Symlink(filepath.Join(root, "store", "a.org"), link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result := MoveImage(filepath.Join(root, "img", "pic.png"), filepath.Join(root, "dest"), nil)
	if err := result.Err(); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(root, "store", "a.org")); got != "[[file:dest/images/pic.png]]\n" {
		t.Errorf("symlink target = %q", got)
	}
	info, err := os.Lstat(link)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Error("the symlink itself must not be replaced")
	}
	if fileExists(filepath.Join(root, "img", "pic.png")) {
		t.Error("source image should be removed")
	}
}

func TestMoveImageCollisionKeepsEverything(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.org":               "[[file:img/pic.png]]\n",
		"img/pic.png":         "NEW",
		"dest/images/pic.png": "OLD",
	})
	result := MoveImage(filepath.Join(root, "img", "pic.png"), filepath.Join(root, "dest"), nil)
	if !result.HasProblem(ProblemCollision) {
		t.Fatalf("expected collision, got %v", result.Problems)
	}
	if !fileExists(filepath.Join(root, "img", "pic.png")) {
		t.Error("source should be kept on collision")
	}
	if got := readFile(t, filepath.Join(root, "a.org")); got != "[[file:img/pic.png]]\n" {
		t.Errorf("a.org should be untouched, got %q", got)
	}
}

func TestRelativeLink(t *testing.T) {
	tests := []struct {
		fromDir, target, old, want string
	}{
		{"/n", "/n/dest/images/a.png", "./img/a.png", "./dest/images/a.png"},
		{"/n", "/n/dest/images/a.png", "img/a.png", "dest/images/a.png"},
		{"/n/sub", "/n/dest/images/a.png", "./img/a.png", "../dest/images/a.png"},
		{"/n", "/n/images/a.png", "a.png", "images/a.png"},
	}
	for _, tt := range tests {
		if got := relativeLink(tt.fromDir, tt.target, tt.old); got != tt.want {
			t.Errorf("relativeLink(%q, %q, %q) = %q, want %q", tt.fromDir, tt.target, tt.old, got, tt.want)
		}
	}
}
