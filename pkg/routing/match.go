package routing

import "strings"

// hostOnly strips an optional ":port" suffix from an inbound Host value.
// IPv6 literals keep their brackets.
func hostOnly(host string) string {
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}

// matchHost reports whether host matches pattern. An exact pattern compares
// case-insensitively. A "*.suffix" pattern matches hosts with exactly one
// label in place of the wildcard: the part of the host after its first label
// must equal the suffix.
func matchHost(pattern, host string) bool {
	if !strings.HasPrefix(pattern, "*.") {
		return strings.EqualFold(pattern, host)
	}

	suffix := pattern[2:]
	dot := strings.IndexByte(host, '.')
	if dot < 0 {
		return false
	}
	return strings.EqualFold(host[dot+1:], suffix)
}

// matchPath reports whether prefix matches path on a segment boundary:
// either the path equals the prefix, or the character following the matched
// prefix is a path separator. "/api" matches "/api" and "/api/users" but
// not "/apiary".
func matchPath(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return prefix[len(prefix)-1] == '/' || path[len(prefix)] == '/'
}

// RewritePath derives the outbound path for a request that matched this
// route. With StripPrefix the matched prefix is removed (an empty remainder
// becomes "/"); RewritePrefix, when set, is prepended to the remainder. With
// neither option the path is forwarded unchanged.
func (r *Route) RewritePath(path string) string {
	rest := path
	if r.StripPrefix {
		rest = strings.TrimPrefix(path, r.PathPrefix)
		if !strings.HasPrefix(rest, "/") {
			rest = "/" + rest
		}
	}
	if r.RewritePrefix != "" {
		rest = r.RewritePrefix + rest
	}
	return rest
}
