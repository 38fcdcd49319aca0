package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	check := func(input, expected string) {
		t.Helper()
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}

	check("", "/")
	check("/metrics", "/metrics")
	check("/v1/users", "/v1/users")
	check("/v1/users/renew", "/v1/users/renew")
	check("/v1/users/abc", "/v1/users/:id")
	check("/v1/users/token/abc123", "/v1/users/token/:token")
	check("/v1/users/email/a@b.c", "/v1/users/email/:email")
	check("/v1/users/email-exists/a@b.c", "/v1/users/email-exists/:email")
	check("/v1/users/abc/organizations?limit=10", "/v1/users/:id/organizations")
	check("/v1/users/abc/permissions/p9", "/v1/users/:id/permissions/:permission")
	check("/v1/users/check-permission/abc/permissions/p.q", "/v1/users/check-permission/:id/permissions/:name")
	check("/v1/organizations", "/v1/organizations")
	check("/v1/organizations/o1", "/v1/organizations/:id")
	check("/v1/organizations/o1/members", "/v1/organizations/:id/members")
	check("/v1/organizations/o1/servers", "/v1/organizations/:id/servers")
	check("/v1/organizations/o1/unknown", "/v1/organizations/o1/unknown")
}
