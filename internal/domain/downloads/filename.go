package downloads

import "strings"

// DeriveFilename builds the content-disposition filename from the magazine
// title and the member's name. Characters outside [A-Za-z0-9] and whitespace
// are dropped, runs of whitespace collapse to a single underscore, and the
// two parts are joined with an underscore.
//
//	"New Era: Vol. 1!" + "Jane O'Brien" -> "New_Era_Vol_1_Jane_OBrien.pdf"
func DeriveFilename(title, fullName string) string {
	parts := make([]string, 0, 2)
	if t := sanitizeFilenamePart(title); t != "" {
		parts = append(parts, t)
	}
	if n := sanitizeFilenamePart(fullName); n != "" {
		parts = append(parts, n)
	}
	if len(parts) == 0 {
		return "magazine.pdf"
	}
	return strings.Join(parts, "_") + ".pdf"
}

func sanitizeFilenamePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}
