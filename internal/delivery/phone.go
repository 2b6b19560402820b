package delivery

import "strings"

// NormalizePhone strips everything that is not a digit from a recipient
// identifier, e.g. "+55 (11) 99999-0000" becomes "5511999990000".
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
