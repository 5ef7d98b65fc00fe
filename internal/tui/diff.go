package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is one line of a line-by-line comparison.
type DiffLine struct {
	LineNum1 int  // Line number in the older generation, 0 if added
	LineNum2 int  // Line number in the newer generation, 0 if deleted
	Type     rune // ' ' unchanged, '+' added, '-' deleted
	Content  string
}

// DiffResult compares the contents of two generations.
type DiffResult struct {
	Older    string
	Newer    string
	Lines    []DiffLine
	Added    int
	Deleted  int
	IsBinary bool
}

// ComputeDiff compares older and newer line by line.
func ComputeDiff(olderName, older, newerName, newer string) *DiffResult {
	result := &DiffResult{Older: olderName, Newer: newerName}

	content1, content2 := older, newer
	if IsBinaryContent(content1) || IsBinaryContent(content2) {
		result.IsBinary = true
		return result
	}

	// Diff whole lines rather than characters
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(content1, content2)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	ln1, ln2 := 1, 1
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				result.Lines = append(result.Lines, DiffLine{LineNum1: ln1, LineNum2: ln2, Type: ' ', Content: line})
				ln1++
				ln2++
			case diffmatchpatch.DiffDelete:
				result.Lines = append(result.Lines, DiffLine{LineNum1: ln1, Type: '-', Content: line})
				result.Deleted++
				ln1++
			case diffmatchpatch.DiffInsert:
				result.Lines = append(result.Lines, DiffLine{LineNum2: ln2, Type: '+', Content: line})
				result.Added++
				ln2++
			}
		}
	}

	return result
}

// splitLines splits text on newlines, dropping the empty tail after a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// IsBinaryContent checks if content appears to be binary
func IsBinaryContent(content string) bool {
	if len(content) == 0 {
		return false
	}
	// Check first 8000 bytes for null bytes or invalid UTF-8
	checkLen := len(content)
	if checkLen > 8000 {
		checkLen = 8000
	}
	sample := content[:checkLen]

	// Check for null bytes (common in binary files)
	if strings.Contains(sample, "\x00") {
		return true
	}

	// Check if it's valid UTF-8
	return !utf8.ValidString(sample)
}
