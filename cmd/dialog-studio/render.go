package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/fileutils"
)

func renderSession(w io.Writer, l *studio.Learning, all bool) {
	fmt.Fprintf(w, "%s -> %s, %d focused / %d main cards\n", l.Language, l.SecondLanguage, len(l.Focused), len(l.Main))
	path := l.CurrentPath()
	if len(path) == 0 {
		fmt.Fprintln(w, "no dialogs yet")
		return
	}
	parent := l.Root()
	for depth, n := range path {
		indent := strings.Repeat("  ", depth)
		pos := fmt.Sprintf("%d/%d", parent.CurrentIndex()+1, parent.Len())
		if d, ok := n.Dialog(); ok {
			renderDialog(w, indent, pos, d, all)
		} else {
			fmt.Fprintf(w, "%sgroup %s\n", indent, pos)
		}
		parent = n
	}
}

func renderDialog(w io.Writer, indent, pos string, d *studio.Dialog, all bool) {
	fmt.Fprintf(w, "%sdialog %s (%s)\n", indent, pos, d.Type)
	if d.Context != "" {
		fmt.Fprintf(w, "%s  %s\n", indent, fileutils.SingleLine(d.Context))
	}
	for _, i := range d.Interlocutors() {
		fmt.Fprintf(w, "%s  %s: %s, %s, voice %s\n", indent, i.Name, i.Role, i.Gender, i.Voice)
	}
	content := d.Content()
	for n, s := range content {
		if !all && n != d.Position() {
			continue
		}
		marker := " "
		if n == d.Position() {
			marker = ">"
		}
		fmt.Fprintf(w, "%s%s %d/%d %s: %s | %s\n", indent, marker, n+1, len(content), s.Speaker, s.Text, s.Translation)
	}
}

// renderReveal prints the current sentence as far as it has been revealed.
func renderReveal(w io.Writer, r *studio.RevealState) {
	d := r.Dialog()
	fmt.Fprintf(w, "[%d/%d] %s: %s\n", d.Position()+1, d.Len(), r.Speaker(), r.Primary())
	fmt.Fprintf(w, "        %s\n", r.Secondary())
}

func renderCards(w io.Writer, title string, pool studio.WordCardPool) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(pool))
	for _, c := range pool {
		line := fmt.Sprintf("  %s  %s", c.ID(), c.Word)
		if c.WordComment != "" {
			line += " (" + c.WordComment + ")"
		}
		line += " = " + c.Translation
		if c.TranslationComment != "" {
			line += " (" + c.TranslationComment + ")"
		}
		fmt.Fprintln(w, line)
	}
}
