package parser

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MultipleCodeBlocksError is returned when a response holds more than one
// code block, so the replacement is ambiguous.
type MultipleCodeBlocksError struct {
	Count int
}

func (e *MultipleCodeBlocksError) Error() string {
	return fmt.Sprintf("%d code blocks found in response", e.Count)
}

// ExtractCodeBlock parses markdown and returns the literal of its only code
// block, fenced or indented. A response without code blocks is returned
// unchanged.
func ExtractCodeBlock(markdown string) (string, error) {
	blocks := codeBlocks([]byte(markdown))

	switch len(blocks) {
	case 0:
		return markdown, nil
	case 1:
		return blocks[0], nil
	default:
		return "", &MultipleCodeBlocksError{Count: len(blocks)}
	}
}

func codeBlocks(source []byte) []string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			var buf bytes.Buffer
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
			blocks = append(blocks, buf.String())
			return ast.WalkSkipChildren, nil
		}

		return ast.WalkContinue, nil
	})

	return blocks
}
