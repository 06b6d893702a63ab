package chunking

import "strings"

// MarkdownSplitter splits on markdown headings first so chunks do not
// straddle section boundaries, then size-splits each section. Every
// chunk of a section keeps the heading as a prefix so it stays
// self-describing after retrieval.
type MarkdownSplitter struct {
	inner *Splitter
}

func NewMarkdownSplitter(chunkSize, overlap int) *MarkdownSplitter {
	return &MarkdownSplitter{inner: NewSplitter(chunkSize, overlap)}
}

type section struct {
	heading string
	body    strings.Builder
}

func (s *MarkdownSplitter) Split(text string) []string {
	sections := splitSections(text)
	if len(sections) == 0 {
		return nil
	}

	var out []string
	for _, sec := range sections {
		body := strings.TrimSpace(sec.body.String())
		if body == "" {
			continue
		}
		for _, chunk := range s.inner.Split(body) {
			if sec.heading != "" {
				chunk = sec.heading + "\n" + chunk
			}
			out = append(out, chunk)
		}
	}
	return out
}

func splitSections(text string) []*section {
	var sections []*section
	current := &section{}
	sections = append(sections, current)

	for _, line := range strings.Split(text, "\n") {
		if isHeading(line) {
			current = &section{heading: strings.TrimSpace(line)}
			sections = append(sections, current)
			continue
		}
		current.body.WriteString(line)
		current.body.WriteString("\n")
	}
	return sections
}

func isHeading(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if !strings.HasPrefix(trimmed, "#") {
		return false
	}
	rest := strings.TrimLeft(trimmed, "#")
	return strings.HasPrefix(rest, " ") || rest == ""
}
