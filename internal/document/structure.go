package document

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #region header
// maxHeaderLen bounds how long an unmarked first line may be and still count
// as a title.
const maxHeaderLen = 80

// HeaderEnd returns the offset just past the document's header/title line and
// any blank lines after it. ok is false if the first non-blank line does not
// look like a header.
func HeaderEnd(text string) (offset int, ok bool) {
	pos := 0
	for pos < len(text) {
		lineEnd, next := lineBounds(text, pos)
		line := strings.TrimSpace(text[pos:lineEnd])
		if line == "" {
			pos = next
			continue
		}
		if !looksLikeHeader(line, next < len(text)) {
			return 0, false
		}
		return skipBlankLines(text, next), true
	}
	return 0, false
}

func looksLikeHeader(line string, hasMore bool) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	if strings.HasSuffix(line, ":") {
		return true
	}
	if isUpperLine(line) {
		return true
	}
	if !hasMore || len(line) > maxHeaderLen {
		return false
	}
	last := rune(line[len(line)-1])
	return !strings.ContainsRune(".!?;,", last)
}

func isUpperLine(line string) bool {
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters >= 3
}

// #endregion header

// #region signature
var signatureLine = regexp.MustCompile(`(?i)^\s*(?:yours (?:sincerely|faithfully)|kind regards|best regards|regards,|sincerely,|signed\b|signature\b|for and on behalf of|authori[sz]ed signatory|_{5,})`)

// SignatureStart returns the offset of the first line of the signature block.
func SignatureStart(text string) (offset int, ok bool) {
	pos := 0
	for pos < len(text) {
		lineEnd, next := lineBounds(text, pos)
		if signatureLine.MatchString(text[pos:lineEnd]) {
			return pos, true
		}
		pos = next
	}
	return 0, false
}

// #endregion signature

// #region insertion
// InsertionEdit builds the edit that places paragraph at point. Points that
// cannot be located fall back: section to start, before_signature to end.
func InsertionEdit(text string, point taxonomy.InsertionPoint, paragraph string) Edit {
	switch point {
	case taxonomy.InsertStart:
		return headEdit(text, 0, paragraph)
	case taxonomy.InsertSection:
		off, ok := HeaderEnd(text)
		if !ok {
			return headEdit(text, 0, paragraph)
		}
		if off >= len(text) {
			return tailEdit(text, paragraph)
		}
		return headEdit(text, off, paragraph)
	case taxonomy.InsertBeforeSignature:
		off, ok := SignatureStart(text)
		if !ok {
			return tailEdit(text, paragraph)
		}
		return headEdit(text, off, paragraph)
	default:
		return tailEdit(text, paragraph)
	}
}

func headEdit(text string, off int, paragraph string) Edit {
	if off >= len(text) {
		return Edit{Start: off, End: off, Insert: paragraph}
	}
	return Edit{Start: off, End: off, Insert: paragraph + "\n\n"}
}

func tailEdit(text string, paragraph string) Edit {
	n := len(text)
	switch {
	case n == 0:
		return Edit{Start: 0, End: 0, Insert: paragraph}
	case strings.HasSuffix(text, "\n\n"):
		return Edit{Start: n, End: n, Insert: paragraph + "\n"}
	case strings.HasSuffix(text, "\n"):
		return Edit{Start: n, End: n, Insert: "\n" + paragraph + "\n"}
	default:
		return Edit{Start: n, End: n, Insert: "\n\n" + paragraph}
	}
}

// #endregion insertion

// #region blocks
// Block is a paragraph: a run of non-blank lines.
type Block struct {
	Span
	Text string
}

// Paragraphs splits text into blocks separated by blank lines.
func Paragraphs(text string) []Block {
	var blocks []Block
	pos := 0
	start := -1
	end := 0
	for pos < len(text) {
		lineEnd, next := lineBounds(text, pos)
		blank := strings.TrimSpace(text[pos:lineEnd]) == ""
		switch {
		case !blank && start < 0:
			start = pos
			end = lineEnd
		case !blank:
			end = lineEnd
		case blank && start >= 0:
			blocks = append(blocks, Block{Span: Span{Start: start, End: end}, Text: text[start:end]})
			start = -1
		}
		pos = next
	}
	if start >= 0 {
		blocks = append(blocks, Block{Span: Span{Start: start, End: end}, Text: text[start:end]})
	}
	return blocks
}

// MoveBefore returns the edits that move blocks[from] to just before
// blocks[to]. from must come after to.
func MoveBefore(blocks []Block, from, to int) []Edit {
	if from <= to || from >= len(blocks) || to < 0 {
		return nil
	}
	moved := blocks[from]
	return []Edit{
		{Start: blocks[to].Start, End: blocks[to].Start, Insert: moved.Text + "\n\n"},
		{Start: blocks[from-1].End, End: moved.End, Insert: ""},
	}
}

// #endregion blocks

// #region helpers
// lineBounds returns the end of the line starting at pos (excluding the
// newline) and the start of the next line.
func lineBounds(text string, pos int) (lineEnd, next int) {
	i := strings.IndexByte(text[pos:], '\n')
	if i < 0 {
		return len(text), len(text)
	}
	return pos + i, pos + i + 1
}

func skipBlankLines(text string, pos int) int {
	for pos < len(text) {
		lineEnd, next := lineBounds(text, pos)
		if strings.TrimSpace(text[pos:lineEnd]) != "" {
			return pos
		}
		pos = next
	}
	return pos
}

// #endregion helpers
