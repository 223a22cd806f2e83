package parser

import (
	"fmt"
	"regexp"

	"github.com/pstuifzand/zcode/internal/model"
)

// parseRegex runs Pattern over the output; group 1 is the path and group 2
// the full new content
func (p *Parser) parseRegex(out string) ([]model.FileChange, error) {
	if p.Pattern == "" {
		return nil, fmt.Errorf("regex parser has no pattern")
	}
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("pattern needs two groups (path, content)")
	}

	var changes []model.FileChange
	for _, m := range re.FindAllStringSubmatch(out, -1) {
		fc, err := p.fullContentChange(m[1], m[2])
		if err != nil {
			return nil, err
		}
		changes = append(changes, fc)
	}
	return changes, nil
}
