package parsers

import (
	"bufio"
	"io"
	"strings"

	logpkg "github.com/haukened/bloomset/internal/common/log"
)

// ParsePlainList parses a newline-delimited list of keys.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Trims surrounding whitespace and a leading BOM
// - Skips empty lines after trimming/stripping comments
// - De-duplicates while preserving first-seen order
//
// Keys are otherwise taken verbatim; case is preserved.
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger) ([]string, error) {
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]string, 0, 256)
	logger.Debug(map[string]any{"source": source}, "parse_plain_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}

		key := strings.TrimSpace(stripInlineComment(line))
		if key == "" {
			logger.Debug(map[string]any{"line": lineNum}, "skip_comment_only")
			continue
		}
		if _, ok := seen[key]; ok {
			logger.Debug(map[string]any{"line": lineNum, "key": key}, "skip_duplicate")
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_plain_list_done")
	return out, nil
}
