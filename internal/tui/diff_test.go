package tui

import (
	"strings"
	"testing"
)

func TestIsBinaryContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{
			name:     "empty content",
			content:  "",
			expected: false,
		},
		{
			name:     "plain text",
			content:  "2024-01-01 00:00:00 [INFO] started\n",
			expected: false,
		},
		{
			name:     "text with unicode",
			content:  "Hello 世界! Émojis: 🎉",
			expected: false,
		},
		{
			name:     "null bytes",
			content:  "o\x00k\x00",
			expected: true,
		},
		{
			name:     "invalid utf-8",
			content:  "bad \xff\xfe",
			expected: true,
		},
		{
			name:     "null byte past the sample",
			content:  strings.Repeat("a", 9000) + "\x00",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinaryContent(tt.content); got != tt.expected {
				t.Errorf("IsBinaryContent() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestComputeDiff(t *testing.T) {
	older := "one\ntwo\nthree\n"
	newer := "one\nthree\nfour\n"

	result := ComputeDiff("app.2.log", older, "app.1.log", newer)

	if result.Older != "app.2.log" || result.Newer != "app.1.log" {
		t.Errorf("names = %q, %q", result.Older, result.Newer)
	}
	if result.IsBinary {
		t.Fatal("text content should not be binary")
	}
	if result.Added != 1 || result.Deleted != 1 {
		t.Errorf("added/deleted = %d/%d, expected 1/1", result.Added, result.Deleted)
	}

	expected := []DiffLine{
		{LineNum1: 1, LineNum2: 1, Type: ' ', Content: "one"},
		{LineNum1: 2, Type: '-', Content: "two"},
		{LineNum1: 3, LineNum2: 2, Type: ' ', Content: "three"},
		{LineNum2: 3, Type: '+', Content: "four"},
	}
	if len(result.Lines) != len(expected) {
		t.Fatalf("lines = %+v, expected %+v", result.Lines, expected)
	}
	for i, line := range expected {
		if result.Lines[i] != line {
			t.Errorf("line %d = %+v, expected %+v", i, result.Lines[i], line)
		}
	}
}

func TestComputeDiffIdentical(t *testing.T) {
	result := ComputeDiff("a", "same\n", "b", "same\n")
	if result.Added != 0 || result.Deleted != 0 {
		t.Errorf("added/deleted = %d/%d, expected 0/0", result.Added, result.Deleted)
	}
	if len(result.Lines) != 1 || result.Lines[0].Type != ' ' {
		t.Errorf("lines = %+v", result.Lines)
	}
}

func TestComputeDiffEmpty(t *testing.T) {
	result := ComputeDiff("a", "", "b", "")
	if len(result.Lines) != 0 {
		t.Errorf("lines = %+v, expected none", result.Lines)
	}

	result = ComputeDiff("a", "", "b", "new\n")
	if result.Added != 1 || result.Deleted != 0 {
		t.Errorf("added/deleted = %d/%d, expected 1/0", result.Added, result.Deleted)
	}
}

func TestComputeDiffBinary(t *testing.T) {
	result := ComputeDiff("a", "text\n", "b", "t\x00e\x00")
	if !result.IsBinary {
		t.Error("IsBinary = false, expected true")
	}
	if len(result.Lines) != 0 {
		t.Errorf("binary diff should carry no lines, got %d", len(result.Lines))
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"a\n", []string{"a"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\nb", []string{"a", "b"}},
		{"\n", []string{""}},
	}
	for _, tt := range tests {
		got := splitLines(tt.input)
		if strings.Join(got, "|") != strings.Join(tt.expected, "|") || len(got) != len(tt.expected) {
			t.Errorf("splitLines(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
