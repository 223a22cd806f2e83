package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/pstuifzand/zcode/internal/model"
)

// CodeBlock represents a parsed code block from markdown content
type CodeBlock struct {
	// Hint is the paragraph immediately preceding the code block
	Hint string
	// Info is the full info string, e.g. "go title=main.go"
	Info string
	// Content is the raw text inside the code block
	Content string
}

// markerLine matches a first line such as "// file: src/main.go"
var markerLine = regexp.MustCompile(`^\s*(?://|#|<!--|--|;)\s*(file:|path:)?\s*(\S+?)\s*(?:-->)?\s*$`)

// ExtractCodeBlocks uses a markdown AST to find all fenced code blocks
// and their preceding paragraph
func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	var blocks []CodeBlock
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block CodeBlock
		if fenced.Info != nil {
			block.Info = strings.TrimSpace(string(fenced.Info.Segment.Value(source)))
		}
		block.Content = string(linesOf(fenced, source))

		if prev := fenced.PreviousSibling(); prev != nil {
			if p, ok := prev.(*ast.Paragraph); ok {
				block.Hint = strings.TrimSpace(string(linesOf(p, source)))
			}
		}

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}
	return blocks, nil
}

func linesOf(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

// PathFromInfo finds a path=, file= or title= attribute in an info string
func PathFromInfo(info string) string {
	for _, field := range strings.Fields(info) {
		for _, key := range []string{"path=", "file=", "title="} {
			if v, ok := strings.CutPrefix(field, key); ok {
				return strings.Trim(v, `"'`)
			}
		}
	}
	return ""
}

// PathFromMarker reports the path named by a marker comment on the first
// line of content and returns the content without that line
func PathFromMarker(content string) (path, rest string, ok bool) {
	first, rest, _ := strings.Cut(content, "\n")
	m := markerLine.FindStringSubmatch(first)
	if m == nil {
		return "", content, false
	}
	candidate := m[2]
	if m[1] == "" && !strings.ContainsAny(candidate, "./") {
		// a plain comment, not a file marker
		return "", content, false
	}
	return candidate, rest, true
}

func (p *Parser) parseCodeBlocks(source []byte) ([]model.FileChange, error) {
	blocks, err := ExtractCodeBlocks(source)
	if err != nil {
		return nil, err
	}

	var changes []model.FileChange
	for _, b := range blocks {
		path, content, ok := PathFromMarker(b.Content)
		if !ok {
			if path = PathFromInfo(b.Info); path == "" {
				continue
			}
			content = b.Content
		}
		fc, err := p.fullContentChange(path, content)
		if err != nil {
			return nil, err
		}
		changes = append(changes, fc)
	}
	return changes, nil
}
