// Package markdown extracts runnable code blocks from markdown documents.
//
// The markdown package walks a document's structure exactly once using
// goldmark, tracking the enclosing heading path and any runme directives,
// and returns CodeBlock records in discovery order. Blocks receive stable
// identifiers (block-001, block-002, ...) that callers can use together with
// optional user-assigned names to select what to execute.
//
// Directives are written either as an HTML comment on the line(s) before a
// fence, which applies to the next block only:
//
//	<!-- runme:name install-deps -->
//	<!-- runme:ignore -->
//
// or as tokens inside the fence info string:
//
//	```bash runme:name=setup runme:skip
//
// Usage:
//
//	blocks, err := markdown.LoadFile("README.md")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, block := range blocks {
//	    fmt.Println(block.ID, block.Headings)
//	}
package markdown
