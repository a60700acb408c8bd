package money

import (
	"regexp"
	"strings"
)

// Token is one monetary value found in text.
type Token struct {
	Value  int64  `json:"value"`
	Raw    string `json:"raw"`
	Offset int    `json:"offset"`
}

// Money tokens carry exactly two decimals. Space-grouped thousands are only
// accepted behind a currency symbol, otherwise "2 100.00" (qty + price) would merge.
var reMoneyToken = regexp.MustCompile(`(\()?(-)?(?:\$\s?\d{1,3}(?: \d{3})+\.\d{2}|(?:\$\s?)?(?:\d{1,3}(?:,\d{3})+|\d+)\.\d{2})(\))?`)

var reTrailingCredit = regexp.MustCompile(`(?i)^(\s?CR\b|-)`)

// Scan returns every money token in text, in order of appearance.
func Scan(text string) []Token {
	var out []Token
	for _, loc := range reMoneyToken.FindAllStringSubmatchIndex(text, -1) {
		start, end := loc[0], loc[1]
		openParen := loc[2] >= 0
		closeParen := loc[6] >= 0

		// reject fragments of longer numbers: "123.456", "1.2345", "A12.00"
		if start > 0 && isNumberRune(text[start-1]) {
			continue
		}
		if end < len(text) && (isDigit(text[end]) || (text[end] == '.' && end+1 < len(text) && isDigit(text[end+1]))) {
			continue
		}

		if openParen != closeParen {
			// unbalanced parentheses are punctuation, not a negative marker
			if openParen {
				start++
			} else {
				end--
			}
		}
		if m := reTrailingCredit.FindStringIndex(text[end:]); m != nil {
			after := end + m[1]
			if after == len(text) || !isWordRune(text[after]) {
				end = after
			}
		}
		raw := strings.TrimSpace(text[start:end])
		out = append(out, Token{
			Value:  ParseAmount(raw),
			Raw:    raw,
			Offset: start,
		})
	}
	return out
}

// LastToken returns the right-most money token of a line.
func LastToken(line string) (Token, bool) {
	toks := Scan(line)
	if len(toks) == 0 {
		return Token{}, false
	}
	return toks[len(toks)-1], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNumberRune(b byte) bool {
	return isDigit(b) || b == '.' || b == ','
}

func isWordRune(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}
