package manuscript

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextParser reads plain text. Blank lines separate paragraphs; each
// paragraph becomes an untitled section.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Manuscript, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	m := &Manuscript{Title: titleFromFilename(filename)}
	var para []string
	flush := func() {
		if len(para) > 0 {
			m.Sections = append(m.Sections, &Section{Text: strings.Join(para, "\n")})
			para = para[:0]
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		para = append(para, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	flush()

	return m, nil
}
