package main

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/bunsho/internal/models"
)

func askFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	commonFlags(fs)
	fs.String("output", "text", "")
	return fs
}

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after question are moved first",
			args:     []string{"doc.pdf", "what", "is", "it", "-output", "json"},
			expected: []string{"-output", "json", "doc.pdf", "what", "is", "it"},
		},
		{
			name:     "flag in the middle keeps positional order",
			args:     []string{"doc.pdf", "-output", "json", "what", "is", "it"},
			expected: []string{"-output", "json", "doc.pdf", "what", "is", "it"},
		},
		{
			name:     "bool flag takes no value",
			args:     []string{"doc.pdf", "--debug", "what", "is", "it"},
			expected: []string{"--debug", "doc.pdf", "what", "is", "it"},
		},
		{
			name:     "inline value",
			args:     []string{"doc.pdf", "why?", "-output=json"},
			expected: []string{"-output=json", "doc.pdf", "why?"},
		},
		{
			name:     "unknown dash word stays positional",
			args:     []string{"doc.pdf", "is", "it", "-5", "degrees", "-output", "json"},
			expected: []string{"-output", "json", "doc.pdf", "is", "it", "-5", "degrees"},
		},
		{
			name:     "double dash ends flags",
			args:     []string{"doc.pdf", "--", "-output", "means", "what"},
			expected: []string{"doc.pdf", "-output", "means", "what"},
		},
		{
			name:     "leading dash positional is protected",
			args:     []string{"-5", "degrees", "-output", "json"},
			expected: []string{"-output", "json", "--", "-5", "degrees"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-output", "json", "doc.pdf", "question"},
			expected: []string{"-output", "json", "doc.pdf", "question"},
		},
		{
			name:     "positionals only returns unchanged",
			args:     []string{"doc.pdf", "question"},
			expected: []string{"doc.pdf", "question"},
		},
		{
			name:     "empty args",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(askFlags(), tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestArgsReorder_Parse(t *testing.T) {
	fs := askFlags()
	if err := fs.Parse(argsReorder(fs, []string{"doc.pdf", "-output", "json", "what", "is", "it"})); err != nil {
		t.Fatal(err)
	}
	if got := fs.Lookup("output").Value.String(); got != "json" {
		t.Errorf("output: got %q", got)
	}
	if fs.Arg(0) != "doc.pdf" || buildQuestion(fs.Args()[1:]) != "what is it" {
		t.Errorf("positionals: got %v", fs.Args())
	}
}

func TestBuildQuestion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single quoted", []string{"What color is the sky?"}, "What color is the sky?"},
		{"unquoted words", []string{"what", "color", "is", "the", "sky"}, "what color is the sky"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuestion(tt.args); got != tt.expected {
				t.Errorf("buildQuestion(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, path, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Errorf("path: got %q, want empty", path)
	}
	if cfg.Chunking.MaxChunkSize != 1000 || cfg.Generation.Provider != "auto" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_LocalFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := "chunking:\n  max_chunk_size: 500\n  overlap_size: 50\ngeneration:\n  provider: extractive\n"
	if err := os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if path != defaultConfigFile {
		t.Errorf("path: got %q", path)
	}
	if cfg.Chunking.MaxChunkSize != 500 || cfg.Generation.Provider != "extractive" {
		t.Errorf("config: got %+v", cfg)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("The sky is blue."), 0644); err != nil {
		t.Fatal(err)
	}
	doc, err := readDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "notes.txt" || doc.MediaType != models.MediaTypeText || string(doc.Content) != "The sky is blue." {
		t.Errorf("document: got %+v", doc)
	}

	if _, err := readDocument(filepath.Join(dir, "sheet.xlsx")); !errors.Is(err, models.ErrUnsupportedFormat) {
		t.Errorf("xlsx: got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := readDocument(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
