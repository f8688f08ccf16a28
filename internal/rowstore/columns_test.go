package rowstore

import "testing"

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Ticket ID", "ticketid"},
		{"ticket_id", "ticketid"},
		{"Ticket-Id", "ticketid"},
		{"  Resolved   By ", "resolvedby"},
		{"Rating 1", "rating1"},
	}
	for _, tc := range cases {
		if got := normalizeHeader(tc.raw); got != tc.want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestResolverMatchesAliases(t *testing.T) {
	schema := Schema{
		Sheet: "s",
		Key:   "ticket_id",
		Fields: []Field{
			{Name: "ticket_id", Aliases: []string{"Ticket ID", "TID"}},
			{Name: "status", Aliases: []string{"Case Status"}},
		},
	}
	r := newResolver(schema)

	for _, header := range []string{"ticket_id", "Ticket ID", "TID", "tid", "TICKET-ID"} {
		canonical, ok := r.resolve(header)
		if !ok || canonical != "ticket_id" {
			t.Fatalf("resolve(%q) = %q, %v; want ticket_id", header, canonical, ok)
		}
	}
	if canonical, ok := r.resolve("case status"); !ok || canonical != "status" {
		t.Fatalf("alias with spaces did not resolve: %q %v", canonical, ok)
	}
	if _, ok := r.resolve("unrelated"); ok {
		t.Fatalf("unknown header must not resolve")
	}
}
