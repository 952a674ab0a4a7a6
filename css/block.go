package css

import "bytes"

// statement is a top level piece of a block body: a declaration or an
// at-rule statement when block is false, otherwise prelude of a nested block
// followed by its body.
type statement struct {
	prelude []byte
	body    []byte
	block   bool
}

// skipString returns index of the quote closing string which starts at i.
// Unterminated strings end at newline or end of src.
func skipString(src []byte, i int) int {
	quote := src[i]
	for i++; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote, '\n':
			return i
		}
	}
	return len(src)
}

// skipComment returns index of the last byte of comment which starts at i,
// or -1 when there is no comment there.
func skipComment(src []byte, i int) int {
	if i+1 >= len(src) || src[i] != '/' || src[i+1] != '*' {
		return -1
	}
	if j := bytes.Index(src[i+2:], []byte("*/")); j >= 0 {
		return i + j + 3
	}
	return len(src)
}

// blockEnd returns index of the brace closing block whose body starts at
// from, len(src) when block is never closed.
func blockEnd(src []byte, from int) int {
	depth := 0
	for i := from; i < len(src); i++ {
		switch c := src[i]; c {
		case '\\':
			i++
		case '"', '\'':
			i = skipString(src, i)
		case '/':
			if j := skipComment(src, i); j >= 0 {
				i = j
			}
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return len(src)
}

// hasBlock reports whether body contains a nested block.
func hasBlock(body []byte) bool {
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '"', '\'':
			i = skipString(body, i)
		case '/':
			if j := skipComment(body, i); j >= 0 {
				i = j
			}
		case '{':
			return true
		}
	}
	return false
}

// splitStatements splits block body at top level semicolons and nested
// blocks. Semicolons inside parentheses (data urls) do not split.
func splitStatements(body []byte) []statement {
	var (
		out   []statement
		start int
		depth int
	)
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '"', '\'':
			i = skipString(body, i)
		case '/':
			if j := skipComment(body, i); j >= 0 {
				i = j
			}
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				out = append(out, statement{prelude: body[start:i]})
				start = i + 1
			}
		case '{':
			end := blockEnd(body, i+1)
			out = append(out, statement{prelude: body[start:i], body: body[i+1 : end], block: true})
			i, start, depth = end, end+1, 0
		}
	}
	if start < len(body) {
		out = append(out, statement{prelude: body[start:]})
	}
	return out
}
