package markdown

import (
	"fmt"
	"strings"
)

// DefaultSkipReason is recorded for blocks marked with runme:ignore or runme:skip.
const DefaultSkipReason = "Marked with runme:ignore"

// shellLabel is shown for blocks without a language tag.
const shellLabel = "shell"

var shellLanguages = map[string]bool{
	"bash":  true,
	"sh":    true,
	"shell": true,
	"zsh":   true,
}

// CodeBlock is a code block discovered in a markdown document.
//
// Optional fields use the empty string for "absent": an empty Language means
// the fence carried no info string and the block is treated as shell.
type CodeBlock struct {
	// ID is assigned by discovery order, e.g. block-001.
	ID string
	// Name is the optional user-assigned name from runme:name. Not unique.
	Name string
	// Language is the lowercase language token of the fence info string.
	Language string
	// Headings holds the enclosing heading titles, outermost first.
	Headings []string
	// Content is the raw block text with surrounding whitespace trimmed.
	Content string
	// SkipReason is set when a directive marks the block as non-runnable.
	SkipReason string
}

// IsShell reports whether the block can be executed as shell commands.
// Untagged blocks are assumed to be shell.
func (b CodeBlock) IsShell() bool {
	lang := strings.ToLower(strings.TrimSpace(b.Language))
	if lang == "" {
		return true
	}
	return shellLanguages[lang]
}

// LanguageLabel returns the language tag, or "shell" when the block is untagged.
func (b CodeBlock) LanguageLabel() string {
	if b.Language == "" {
		return shellLabel
	}
	return b.Language
}

// DisplayID returns the id followed by the name in parentheses when one is set.
func (b CodeBlock) DisplayID() string {
	return DisplayID(b.ID, b.Name)
}

// DisplayID formats a block label as "id (name)", or just id when unnamed.
func DisplayID(id, name string) string {
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", id, name)
}

func blockID(index int) string {
	return fmt.Sprintf("block-%03d", index)
}
