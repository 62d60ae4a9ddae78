package post

import (
	"bytes"
)

// Delimiter opens and closes the front-matter block.
const Delimiter = "---"

// Split separates raw file content into the front-matter block and the
// body. The opening delimiter line must start at byte offset 0 and the
// block ends at the next line consisting of the delimiter alone.
// Trailing spaces and a CR are allowed on delimiter lines. The block
// excludes both delimiter lines; the body starts right after the
// closing one and is returned untouched.
func Split(raw []byte) (block, body []byte, err error) {
	if !bytes.HasPrefix(raw, []byte(Delimiter)) {
		return nil, nil, &LoadError{Kind: ErrMissingDelimiter, Line: 1, Msg: "content does not start with " + Delimiter}
	}

	first, rest, ok := nextLine(raw)
	if !isDelimiterLine(first) {
		return nil, nil, &LoadError{Kind: ErrMissingDelimiter, Line: 1, Msg: "opening line is not " + Delimiter}
	}
	if !ok {
		return nil, nil, &LoadError{Kind: ErrMissingDelimiter, Line: 1, Msg: "no closing " + Delimiter}
	}

	start := len(raw) - len(rest)
	offset := start

	for len(rest) > 0 {
		line, next, _ := nextLine(rest)
		if isDelimiterLine(line) {
			return raw[start:offset], next, nil
		}
		offset += len(rest) - len(next)
		rest = next
	}

	return nil, nil, &LoadError{Kind: ErrMissingDelimiter, Msg: "no closing " + Delimiter}
}

// nextLine returns the first line of b without its newline, the
// remainder after the newline, and whether a newline was found.
func nextLine(b []byte) (line, rest []byte, ok bool) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, nil, false
	}
	return b[:i], b[i+1:], true
}

func isDelimiterLine(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == Delimiter
}
