package core

import (
	"iter"
	"regexp"
)

// Link is one [[file:PATH]] or [[file:PATH][DESCRIPTION]] occurrence.
// Start/End delimit the whole link, PathStart/PathEnd the PATH inside it
// (byte offsets into the parsed text).
type Link struct {
	Path        string
	Description string
	Start       int
	End         int
	PathStart   int
	PathEnd     int
}

// Raw returns the link as it appears in the text.
func (l Link) Raw() string {
	if l.Description == "" {
		return "[[file:" + l.Path + "]]"
	}
	return "[[file:" + l.Path + "][" + l.Description + "]]"
}

// PATH excludes whitespace and brackets so that adjacent links
// ("[[file:a]][[file:b]]") never merge into one match.
var (
	fileLinkRe  = regexp.MustCompile(`\[\[file:([^\s\[\]]+)\](?:\[([^\]]+)\])?\]`)
	imageLinkRe = regexp.MustCompile(`\[\[file:([^\s\[\]]+)\]\]`)
)

// Links yields every file link in text, in order of appearance.
func Links(text string) iter.Seq[Link] {
	return matchLinks(fileLinkRe, text)
}

// ImageLinks yields only links without a description.
func ImageLinks(text string) iter.Seq[Link] {
	return matchLinks(imageLinkRe, text)
}

// ParseLinks collects Links(text).
func ParseLinks(text string) []Link {
	var out []Link
	for l := range Links(text) {
		out = append(out, l)
	}
	return out
}

func matchLinks(re *regexp.Regexp, text string) iter.Seq[Link] {
	return func(yield func(Link) bool) {
		off := 0
		for off < len(text) {
			m := re.FindStringSubmatchIndex(text[off:])
			if m == nil {
				return
			}
			l := Link{
				Path:      text[off+m[2] : off+m[3]],
				Start:     off + m[0],
				End:       off + m[1],
				PathStart: off + m[2],
				PathEnd:   off + m[3],
			}
			// Group 2 is absent for the image pattern and -1 for
			// description-less file links.
			if len(m) > 5 && m[4] >= 0 {
				l.Description = text[off+m[4] : off+m[5]]
			}
			if !yield(l) {
				return
			}
			off = l.End
		}
	}
}
