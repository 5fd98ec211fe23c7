package markdown

import (
	"strings"
)

// Directive tokens recognised in HTML comments and fence info strings.
const (
	DirectiveName   = "runme:name"
	DirectiveIgnore = "runme:ignore"
	DirectiveSkip   = "runme:skip"
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// commentDirective is the outcome of parsing one HTML comment.
type commentDirective struct {
	name string
	skip bool
}

// parseCommentDirective parses `<!-- runme:name X -->`, `<!-- runme:ignore -->`
// and `<!-- runme:skip -->`. The name may also be written as runme:name=X.
func parseCommentDirective(raw string) (commentDirective, bool) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, commentOpen) || !strings.HasSuffix(raw, commentClose) {
		return commentDirective{}, false
	}
	inner := strings.TrimSpace(raw[len(commentOpen) : len(raw)-len(commentClose)])
	fields := strings.Fields(inner)
	if len(fields) == 0 {
		return commentDirective{}, false
	}

	first := strings.ToLower(fields[0])
	switch {
	case first == DirectiveIgnore || first == DirectiveSkip:
		return commentDirective{skip: true}, true
	case first == DirectiveName:
		name := strings.TrimSpace(inner[len(DirectiveName):])
		if name == "" {
			return commentDirective{}, false
		}
		return commentDirective{name: name}, true
	case strings.HasPrefix(first, DirectiveName+"="):
		name := strings.TrimSpace(inner[len(DirectiveName)+1:])
		if name == "" {
			return commentDirective{}, false
		}
		return commentDirective{name: name}, true
	default:
		return commentDirective{}, false
	}
}

// infoString holds what a fence info string says about its block.
type infoString struct {
	language string
	name     string
	ignore   bool
}

// parseInfoString splits a fence info string into whitespace separated tokens.
// Directive tokens may appear in any position; other key=value attributes are
// ignored and the first remaining token is the language.
func parseInfoString(raw string) infoString {
	var info infoString
	for _, token := range strings.Fields(raw) {
		lower := strings.ToLower(token)
		switch {
		case lower == DirectiveIgnore || lower == DirectiveSkip:
			info.ignore = true
		case strings.HasPrefix(lower, DirectiveName+"="):
			if value := token[len(DirectiveName)+1:]; value != "" {
				info.name = value
			}
		case strings.Contains(token, "="):
			// attribute such as title=example.sh
		case info.language == "":
			info.language = lower
		}
	}
	return info
}
