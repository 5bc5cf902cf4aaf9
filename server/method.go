package server

import "strings"

// splitMethod splits "<service>.<method>" at the first dot; further dots
// belong to the method part. Both sides must be non-empty for a method to
// be well-formed (spec.md section 3 "Request").
func splitMethod(full string) (service, method string, ok bool) {
	idx := strings.IndexByte(full, '.')
	if idx <= 0 || idx == len(full)-1 {
		return "", "", false
	}
	return full[:idx], full[idx+1:], true
}
