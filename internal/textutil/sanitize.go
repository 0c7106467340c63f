package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer replaces characters that are unsafe in a filename or in a
// quoted MIME header parameter.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	";", "",
)

// SanitizeFileName reduces name to its final path element and replaces
// unsafe characters. Slashes inside the element cannot occur, so colons and
// asterisks become dashes while quotes, angle brackets and control characters
// are removed. An empty result means no usable name was supplied.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	if strings.Trim(name, ".") == "" {
		return ""
	}
	return name
}
