package render

import "strings"

// CodeBlock is the raw text of one fenced block, as copied to the clipboard.
type CodeBlock struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	// Complete is false for a block whose closing fence has not arrived yet.
	Complete bool `json:"complete"`
}

// ExtractCodeBlocks returns every fenced block in text in order. A block left
// open at the end of text is returned with Complete unset.
func ExtractCodeBlocks(text string) []CodeBlock {
	var (
		blocks []CodeBlock
		open   *CodeBlock
		fence  string
		body   []string
	)

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))

		if open == nil {
			marker, info, ok := openingFence(trimmed)
			if !ok {
				continue
			}
			fence = marker
			open = &CodeBlock{Language: info}
			body = body[:0]
			continue
		}

		if isClosingFence(trimmed, fence) {
			open.Code = strings.Join(body, "\n")
			open.Complete = true
			blocks = append(blocks, *open)
			open = nil
			continue
		}
		body = append(body, strings.TrimRight(line, "\r"))
	}

	if open != nil {
		open.Code = strings.Join(body, "\n")
		blocks = append(blocks, *open)
	}
	return blocks
}

// openingFence recognises ``` and ~~~ fences of length three or more and
// returns the first word of the info string as the language.
func openingFence(line string) (marker, language string, ok bool) {
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(line) && line[n] == ch {
			n++
		}
		if n < 3 {
			continue
		}
		info := strings.TrimSpace(line[n:])
		if ch == '`' && strings.Contains(info, "`") {
			return "", "", false
		}
		if fields := strings.Fields(info); len(fields) > 0 {
			language = strings.ToLower(fields[0])
		}
		return line[:n], language, true
	}
	return "", "", false
}

func isClosingFence(line, marker string) bool {
	if !strings.HasPrefix(line, marker) {
		return false
	}
	return strings.Trim(line, marker[:1]) == ""
}
