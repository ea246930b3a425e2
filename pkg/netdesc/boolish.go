package netdesc

import "strings"

// ParseBoolish interprets the boolean spellings that appear in agent
// attribute maps. Everything else, including the empty string, is false.
// All boolean-like attribute reads go through here; consumers must not
// parse these values themselves.
func ParseBoolish(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
