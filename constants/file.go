package constants

import "strings"

// AllowedExtensions holds the default file extensions picked up by batch runs.
var AllowedExtensions = map[string]struct{}{
	"txt":  {},
	"text": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
