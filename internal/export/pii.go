package export

import "regexp"

// piiPatterns maps a policy pattern family name to the regex that detects
// it, the same construction style as pkg/redaction's secretPatterns list
// but targeting PII instead of credentials.
var piiPatterns = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`),
	"phone": regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	"ssn":   regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	"url":   regexp.MustCompile(`(?i)https?://[^\s"']+`),
}

const piiRedactionText = "[REDACTED]"

// RedactText replaces every occurrence of every pattern named in
// families with piiRedactionText.
func RedactText(text string, families []string) string {
	out := text
	for _, family := range families {
		if re, ok := piiPatterns[family]; ok {
			out = re.ReplaceAllString(out, piiRedactionText)
		}
	}
	return out
}
