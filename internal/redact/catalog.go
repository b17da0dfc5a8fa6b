package redact

import "regexp"

// Category identifies the kind of sensitive fragment a rule matches.
type Category string

const (
	CategoryName       Category = "name"
	CategoryEmail      Category = "email"
	CategoryPhone      Category = "phone"
	CategoryURL        Category = "url"
	CategoryIPAddress  Category = "ip_address"
	CategoryAPIKey     Category = "api_key"
	CategoryCustomerID Category = "customer_id"
	CategoryAddress    Category = "address"
	CategoryDate       Category = "date"
	CategoryOther      Category = "other"
)

// Rule pairs a compiled matcher with its category and replacement placeholder.
type Rule struct {
	Category    Category
	Matcher     *regexp.Regexp
	Placeholder string
}

// catalog is the process-wide immutable rule table. Order is the priority
// order: more specific patterns come first so that, for example, a full URL is
// consumed before the bare IP or email fragments embedded in it. Placeholders
// are chosen so that no rule in the table can match a placeholder, which makes
// redaction idempotent.
var catalog = []Rule{
	{
		Category:    CategoryURL,
		Matcher:     regexp.MustCompile(`https?://[^\s)\]>"']+|\bwww\.[^\s)\]>"']+`),
		Placeholder: "[URL]",
	},
	{
		Category:    CategoryEmail,
		Matcher:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		Placeholder: "[EMAIL]",
	},
	{
		Category:    CategoryAPIKey,
		Matcher:     regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret|token|password)\s*[:=]\s*['"]?[A-Za-z0-9_./+-]+['"]?`),
		Placeholder: "[API_KEY]",
	},
	{
		Category:    CategoryIPAddress,
		Matcher:     regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		Placeholder: "[IP_ADDRESS]",
	},
	{
		Category:    CategoryPhone,
		Matcher:     regexp.MustCompile(`\b\+?\d{0,2}[\s.-]?\(?\d{3}\)?[\s.-]\d{3}[\s.-]?\d{4}\b|\b\d{3}[.-]\d{3}[.-]\d{4}\b`),
		Placeholder: "[PHONE]",
	},
	{
		Category:    CategoryCustomerID,
		Matcher:     regexp.MustCompile(`\b[A-Z]{2,}(?:[-_]\d{2,}){1,3}\b`),
		Placeholder: "[CUSTOMER_ID]",
	},
	{
		Category:    CategoryDate,
		Matcher:     regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.? \d{1,2}(?:st|nd|rd|th)?,? \d{4}\b`),
		Placeholder: "[DATE]",
	},
	{
		Category:    CategoryAddress,
		Matcher:     regexp.MustCompile(`\b\d+ [A-Z][a-z]+(?: [A-Z][a-z]+)* (?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Way)\b`),
		Placeholder: "[ADDRESS]",
	},
	{
		Category:    CategoryName,
		Matcher:     regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+(?: [A-Z][a-z]+)?\b`),
		Placeholder: "[NAME]",
	},
}

// Rules returns a copy of the catalog in priority order.
// Exposed so tests and audits can verify the closure property per rule.
func Rules() []Rule {
	out := make([]Rule, len(catalog))
	copy(out, catalog)
	return out
}

// PlaceholderFor returns the placeholder string for a category, or "[REDACTED]"
// for categories without a default rule (CategoryOther).
func PlaceholderFor(cat Category) string {
	for _, r := range catalog {
		if r.Category == cat {
			return r.Placeholder
		}
	}
	return "[REDACTED]"
}
