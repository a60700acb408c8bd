package textnorm

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^[ \t]*[_\-=*]{3,}[ \t]*$`)
)

var runeFixes = strings.NewReplacer(
	" ", " ", // no-break space
	" ", " ", // figure space
	" ", " ", // narrow no-break space
	"−", "-", // minus sign
	"–", "-", // en dash
	"—", "-", // em dash
	"＄", "$", // fullwidth dollar
	"\f", "\n", // page breaks from pdftotext
)

// Normalize collapses noisy whitespace and unifies dash/space variants.
// Conservative: keeps line breaks; collapses >2 newlines into a single blank line.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = runeFixes.Replace(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	// collapse too many blank lines
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(s)
}

// Lines splits normalized text into lines, keeping blank lines so that
// indexes line up with positions in the original document.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// Position maps a line index to a relative document position in [0,1].
func Position(idx, n int) float64 {
	if n <= 1 {
		return 1
	}
	if idx <= 0 {
		return 0
	}
	if idx >= n-1 {
		return 1
	}
	return float64(idx) / float64(n-1)
}
