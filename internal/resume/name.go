package resume

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	nameLinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^name[:\-]?\s*(.+)$`),
		regexp.MustCompile(`(?im)^full name[:\-]?\s*(.+)$`),
	}
	capitalizedPair = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+`)
)

// nameScanLines is how many leading summary lines may hold a bare "First Last" name.
const nameScanLines = 5

// CandidateName derives the display name for a summary. In order: the JSON "name" field,
// a "Name:" or "Full name:" line, a leading "First Last" line, and finally the filename
// stem with underscores turned into spaces.
func CandidateName(summary Summary, filename string) string {
	if s, ok := summary.(StructuredSummary); ok {
		if name := s.Name(); name != "" {
			return name
		}
	}

	text := summary.Text()

	for _, p := range nameLinePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}

	lines := strings.Split(text, "\n")
	if len(lines) > nameScanLines {
		lines = lines[:nameScanLines]
	}

	for _, line := range lines {
		line = strings.Trim(line, "- ")
		if capitalizedPair.MatchString(line) {
			return line
		}
	}

	return fallbackName(filename)
}

func fallbackName(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	return strings.ReplaceAll(base, "_", " ")
}
