package syntax

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

type langEntry struct {
	language *sitter.Language
	name     string
}

var extToLang map[string]langEntry

func init() {
	extToLang = map[string]langEntry{
		".java": {language: java.GetLanguage(), name: "java"},
	}
}

// Detect returns the tree-sitter Language, language name, and whether the
// file extension is one chisel can analyze.
func Detect(path string) (*sitter.Language, string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	entry, ok := extToLang[ext]
	if !ok {
		return nil, "", false
	}
	return entry.language, entry.name, true
}
