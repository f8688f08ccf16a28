package rowstore

import "strings"

// normalizeHeader collapses a human-edited header to a comparison
// key: lower-cased with everything but letters and digits removed, so
// "Ticket ID", "ticket_id" and "Ticket-Id" all compare equal.
func normalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(header) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// resolver maps normalized header spellings onto canonical fields for
// one sheet. Built once per schema; lookups after that are exact.
type resolver struct {
	byAlias map[string]string
}

func newResolver(schema Schema) *resolver {
	byAlias := make(map[string]string)
	for _, field := range schema.Fields {
		byAlias[normalizeHeader(field.Name)] = field.Name
		for _, alias := range field.Aliases {
			byAlias[normalizeHeader(alias)] = field.Name
		}
	}
	return &resolver{byAlias: byAlias}
}

// resolve returns the canonical field a physical header maps to.
func (r *resolver) resolve(header string) (string, bool) {
	canonical, ok := r.byAlias[normalizeHeader(header)]
	return canonical, ok
}
