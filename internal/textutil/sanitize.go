package textutil

import "strings"

// SanitizeFileName converts a catalog release name into a safe file name.
// Path separators and colons become hyphens (Redump titles use both),
// characters Windows forbids are dropped, whitespace runs collapse, and
// trailing dots go because Windows strips them on create.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '|':
			b.WriteRune('-')
		case r == '*' || r == '?' || r == '"' || r == '<' || r == '>':
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 0x20:
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	return strings.TrimRight(cleaned, ". ")
}

// SanitizeToken converts a label into a lowercase filesystem-safe token for
// log fields and data file names. Letters lowercase, digits and separators
// survive, everything else becomes an underscore. Returns "unknown" for
// input with nothing usable.
func SanitizeToken(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	token := strings.Trim(b.String(), "_-")
	if token == "" {
		return "unknown"
	}
	return token
}
