package httpserver

// routePermissions maps each guarded operation to the permissions that may
// perform it. Semantics are any-of: holding one listed permission is
// enough. The guard consults this table directly, there is no per-handler
// metadata.
var routePermissions = map[string][]string{
	"projects:read":   {"read", "write", "admin"},
	"projects:write":  {"write", "admin"},
	"projects:delete": {"delete", "admin"},
	"projects:member": {"admin"},

	"boards:read":  {"read", "write", "admin"},
	"boards:write": {"write", "admin"},

	"lists:read":  {"read", "write", "admin"},
	"lists:write": {"write", "admin"},

	"issues:read":   {"read", "write", "admin"},
	"issues:write":  {"write", "admin"},
	"issues:delete": {"delete", "admin"},

	"comments:read":  {"read", "write", "admin"},
	"comments:write": {"read", "write", "admin"},

	"users:read":   {"read", "write", "admin"},
	"users:manage": {"admin"},

	"roles:read":   {"admin"},
	"roles:manage": {"admin"},

	"permissions:read":   {"admin"},
	"permissions:manage": {"admin"},

	"orgs:read":  {"read", "write", "admin"},
	"orgs:write": {"admin"},

	"search:read": {"read", "write", "admin"},

	"admin:all": {"admin"},
}

// Required returns the permission set for a route identifier. Unknown
// identifiers come back empty, which the guard treats as "authenticated
// users only".
func Required(route string) []string {
	return routePermissions[route]
}
