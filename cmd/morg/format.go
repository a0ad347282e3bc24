package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/ryotapoi/morg/internal/core"
)

// validateFormat checks that format is "json" or "text".
func validateFormat(format string) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %q (must be json or text)", format)
	}
	return nil
}

// --- Relocation output ---

type relocationJSON struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type rewrittenJSON struct {
	File    string `json:"file"`
	OldLink string `json:"old_link"`
	NewLink string `json:"new_link"`
}

type problemJSON struct {
	Kind  string `json:"kind"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

type resultJSON struct {
	Command   string           `json:"command"`
	Copied    []relocationJSON `json:"copied"`
	Removed   []string         `json:"removed"`
	Rewritten []rewrittenJSON  `json:"rewritten"`
	Problems  []problemJSON    `json:"problems"`
}

func printResultJSON(w io.Writer, command string, r *core.Result) error {
	out := resultJSON{
		Command:   command,
		Copied:    []relocationJSON{},
		Removed:   []string{},
		Rewritten: []rewrittenJSON{},
		Problems:  []problemJSON{},
	}
	for _, c := range r.Copied {
		out.Copied = append(out.Copied, relocationJSON{From: c.From, To: c.To})
	}
	out.Removed = append(out.Removed, r.Removed...)
	for _, rw := range r.Rewritten {
		out.Rewritten = append(out.Rewritten, rewrittenJSON{File: rw.File, OldLink: rw.OldLink, NewLink: rw.NewLink})
	}
	for _, p := range r.Problems {
		msg := ""
		if p.Err != nil {
			msg = p.Err.Error()
		}
		out.Problems = append(out.Problems, problemJSON{Kind: string(p.Kind), Path: p.Path, Error: msg})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printResultText(w io.Writer, r *core.Result) {
	if len(r.Copied) > 0 {
		fmt.Fprintln(w, "copied:")
		for _, c := range r.Copied {
			fmt.Fprintf(w, "- %s -> %s\n", c.From, c.To)
		}
	}
	if len(r.Rewritten) > 0 {
		fmt.Fprintln(w, "rewritten:")
		for _, rw := range r.Rewritten {
			fmt.Fprintf(w, "- file: %s\n", rw.File)
			fmt.Fprintf(w, "  old: %s\n", rw.OldLink)
			fmt.Fprintf(w, "  new: %s\n", rw.NewLink)
		}
	}
	if len(r.Removed) > 0 {
		fmt.Fprintln(w, "removed:")
		for _, p := range r.Removed {
			fmt.Fprintf(w, "- %s\n", p)
		}
	}
}

// printProblems writes one "[ERROR]" line per problem, in red when w is a
// terminal.
func printProblems(w io.Writer, problems []core.Problem) {
	if len(problems) == 0 {
		return
	}
	c := color.New(color.FgRed, color.Bold)
	if isTerminal(w) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	for _, p := range problems {
		fmt.Fprintf(w, "%s %s\n", c.Sprint("[ERROR]"), p.Error())
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// --- History output ---

type runJSON struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Started   string `json:"started"`
	Copied    int    `json:"copied"`
	Removed   int    `json:"removed"`
	Rewritten int    `json:"rewritten"`
	Problems  int    `json:"problems"`
}

func printHistoryJSON(w io.Writer, runs []core.RunSummary) error {
	out := make([]runJSON, 0, len(runs))
	for _, r := range runs {
		out = append(out, runJSON{
			ID:        r.ID,
			Command:   r.Command,
			Source:    r.Source,
			Target:    r.Target,
			Started:   r.Started.UTC().Format(time.RFC3339),
			Copied:    r.Copied,
			Removed:   r.Removed,
			Rewritten: r.Rewritten,
			Problems:  r.Problems,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printHistoryText(w io.Writer, runs []core.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s %s %s %s -> %s (copied: %d, rewritten: %d, removed: %d, problems: %d)\n",
			r.Started.Format("2006-01-02 15:04:05"), shortID(r.ID), r.Command, r.Source, r.Target,
			r.Copied, r.Rewritten, r.Removed, r.Problems)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
