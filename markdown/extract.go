package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	// ErrUnterminatedFence is returned when the document ends inside a fenced block.
	ErrUnterminatedFence = errors.New("markdown ended while inside code block")
	// ErrUnmatchedFence is returned when a code block closes without having been opened.
	ErrUnmatchedFence = errors.New("encountered closing code block without start")
)

// ParseError describes malformed fence nesting in a document.
type ParseError struct {
	Line int // 1-based line of the offending fence, 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var parser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// Extract parses a markdown document and returns its code blocks in discovery order.
func Extract(source []byte) ([]CodeBlock, error) {
	doc := parser.Parse(text.NewReader(source))

	e := &extractor{source: source}
	if err := ast.Walk(doc, e.visit); err != nil {
		return nil, err
	}
	if e.inBlock {
		return nil, &ParseError{Err: ErrUnterminatedFence}
	}
	// Directives with no following block are dropped here.
	return e.blocks, nil
}

// extractor holds the state of a single Extract call.
type extractor struct {
	source []byte
	blocks []CodeBlock

	headings      headingStack
	heading       *strings.Builder
	headingParent ast.Node

	// set by comment directives, consumed by the next block
	pendingName string
	pendingSkip string

	inBlock    bool
	language   string
	inlineName string
	content    strings.Builder
}

func (e *extractor) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			e.heading = &strings.Builder{}
			return ast.WalkContinue, nil
		}
		e.commitHeading(node.Level)

	case *ast.Text:
		if entering && e.heading != nil {
			e.headingFragment(node, node.Segment.Value(e.source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				e.heading.WriteByte(' ')
			}
		}

	case *ast.String:
		if entering && e.heading != nil {
			e.headingFragment(node, node.Value)
		}

	case *ast.HTMLBlock:
		if entering {
			e.scanDirectives(node)
		}

	case *ast.FencedCodeBlock:
		if entering {
			var info string
			if node.Info != nil {
				info = string(node.Info.Segment.Value(e.source))
			}
			e.openBlock(parseInfoString(info))
			e.appendLines(node.Lines())
			return ast.WalkContinue, nil
		}
		if line, open := e.unterminated(node); open {
			return ast.WalkStop, &ParseError{Line: line, Err: ErrUnterminatedFence}
		}
		if err := e.closeBlock(); err != nil {
			return ast.WalkStop, err
		}

	case *ast.CodeBlock:
		if entering {
			e.openBlock(infoString{})
			e.appendLines(node.Lines())
			return ast.WalkContinue, nil
		}
		if err := e.closeBlock(); err != nil {
			return ast.WalkStop, err
		}
	}

	return ast.WalkContinue, nil
}

// headingFragment appends inline text to the current heading. Fragments from
// different inline elements, such as emphasis or code spans, are separated by
// a space; adjacent text of the same element is kept together.
func (e *extractor) headingFragment(node ast.Node, value []byte) {
	if e.heading.Len() > 0 && node.Parent() != e.headingParent {
		e.heading.WriteByte(' ')
	}
	e.heading.Write(value)
	e.headingParent = node.Parent()
}

func (e *extractor) commitHeading(level int) {
	if e.heading == nil {
		return
	}
	e.headingParent = nil
	title := strings.Join(strings.Fields(e.heading.String()), " ")
	e.headings.push(level, title)
	e.heading = nil
}

// scanDirectives looks at every line of an HTML block, and at the block as a
// whole so that comments spanning several lines are recognised too.
func (e *extractor) scanDirectives(node *ast.HTMLBlock) {
	var whole bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		value := segment.Value(e.source)
		whole.Write(value)
		e.applyDirective(string(value))
	}
	if node.HasClosure() {
		value := node.ClosureLine.Value(e.source)
		whole.Write(value)
		e.applyDirective(string(value))
	}
	e.applyDirective(whole.String())
}

func (e *extractor) applyDirective(raw string) {
	directive, ok := parseCommentDirective(raw)
	if !ok {
		return
	}
	if directive.skip {
		e.pendingSkip = DefaultSkipReason
	}
	if directive.name != "" {
		e.pendingName = directive.name
	}
}

func (e *extractor) openBlock(info infoString) {
	e.inBlock = true
	e.content.Reset()
	e.language = info.language
	e.inlineName = info.name
	if info.ignore {
		e.pendingSkip = DefaultSkipReason
	}
}

func (e *extractor) appendLines(lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		e.content.Write(segment.Value(e.source))
	}
}

func (e *extractor) closeBlock() error {
	if !e.inBlock {
		return &ParseError{Err: ErrUnmatchedFence}
	}

	name := e.pendingName
	if name == "" {
		name = e.inlineName
	}

	e.blocks = append(e.blocks, CodeBlock{
		ID:         blockID(len(e.blocks) + 1),
		Name:       name,
		Language:   e.language,
		Headings:   e.headings.titles(),
		Content:    strings.TrimSpace(e.content.String()),
		SkipReason: e.pendingSkip,
	})

	e.inBlock = false
	e.language = ""
	e.inlineName = ""
	e.pendingName = ""
	e.pendingSkip = ""
	e.content.Reset()
	return nil
}

// unterminated reports whether a fenced block ran to the end of the document
// without a closing fence. A closed fence always leaves its closing line after
// the last content line, so only whitespace remaining means it was never closed.
func (e *extractor) unterminated(node *ast.FencedCodeBlock) (int, bool) {
	var end, openLine int
	lines := node.Lines()
	switch {
	case lines.Len() > 0:
		end = lines.At(lines.Len() - 1).Stop
		openLine = lineAt(e.source, lines.At(0).Start) - 1
	case node.Info != nil:
		end = node.Info.Segment.Stop
		openLine = lineAt(e.source, node.Info.Segment.Start)
	default:
		// An empty, untagged fence carries no position to check against.
		return 0, false
	}

	if end > len(e.source) {
		end = len(e.source)
	}
	if len(bytes.TrimSpace(e.source[end:])) != 0 {
		return 0, false
	}
	return openLine, true
}

// lineAt returns the 1-based line number of a byte offset.
func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
