package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	diffAddColor    = color.New(color.FgGreen)
	diffRemoveColor = color.New(color.FgRed)
	diffHunkColor   = color.New(color.FgCyan)
)

// writeDiff prints a unified diff between two renderings of the grid.
func writeDiff(w io.Writer, before, after string, colored bool) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	})
	if err != nil {
		return fmt.Errorf("failed to diff grid: %w", err)
	}
	if text == "" {
		_, err := io.WriteString(w, "no changes\n")
		return err
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		if colored {
			line = colorizeDiffLine(line)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

func colorizeDiffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return line
	case strings.HasPrefix(line, "@@"):
		return diffHunkColor.Sprint(line)
	case strings.HasPrefix(line, "+"):
		return diffAddColor.Sprint(line)
	case strings.HasPrefix(line, "-"):
		return diffRemoveColor.Sprint(line)
	}
	return line
}
