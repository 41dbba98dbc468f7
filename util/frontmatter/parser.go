// Package frontmatter splits markdown documents into a YAML frontmatter block
// and a body, as used by task files.
package frontmatter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---"

// Parse decodes the frontmatter of the document read from r into meta and
// returns the remaining body with surrounding blank lines trimmed. A document
// without frontmatter leaves meta untouched and is returned whole as the body.
func Parse(r io.Reader, meta interface{}) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		head, body    bytes.Buffer
		inFrontmatter bool
		closed        bool
		first         = true
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case first && strings.TrimSpace(line) == separator:
			inFrontmatter = true
		case inFrontmatter && !closed && strings.TrimSpace(line) == separator:
			closed = true
		case inFrontmatter && !closed:
			head.WriteString(line)
			head.WriteByte('\n')
		default:
			body.WriteString(line)
			body.WriteByte('\n')
		}
		first = false
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	if inFrontmatter && !closed {
		return "", fmt.Errorf("frontmatter is not closed with %q", separator)
	}
	if head.Len() > 0 {
		if err := yaml.Unmarshal(head.Bytes(), meta); err != nil {
			return "", fmt.Errorf("parse frontmatter: %w", err)
		}
	}
	return strings.TrimSpace(body.String()), nil
}
