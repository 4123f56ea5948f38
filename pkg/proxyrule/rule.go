// Package proxyrule models prefix-matched proxy rules: which requests a rule
// claims, how their path is rewritten and where they are forwarded.
package proxyrule

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ReservedPrefix is the path namespace of the dev server's own endpoints.
// Requests under it are never forwarded and no rule may be keyed inside it.
const ReservedPrefix = "/__devproxy"

// IsReserved reports whether path falls inside ReservedPrefix.
func IsReserved(path string) bool {
	return path == ReservedPrefix || strings.HasPrefix(path, ReservedPrefix+"/")
}

// Rewrite is a single path rewrite. Pattern is matched against the request
// path and its first occurrence is replaced with Replacement, which may use
// $1 style group references.
type Rewrite struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewRewrite compiles pattern into a Rewrite.
func NewRewrite(pattern, replacement string) (Rewrite, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rewrite{}, fmt.Errorf("invalid rewrite pattern %q: %w", pattern, err)
	}
	return Rewrite{Pattern: re, Replacement: replacement}, nil
}

// Apply rewrites the first occurrence of the pattern in path. The boolean
// reports whether the pattern matched at all.
func (rw Rewrite) Apply(path string) (string, bool) {
	loc := rw.Pattern.FindStringSubmatchIndex(path)
	if loc == nil {
		return path, false
	}

	var out []byte
	out = append(out, path[:loc[0]]...)
	out = rw.Pattern.ExpandString(out, rw.Replacement, path, loc)
	out = append(out, path[loc[1]:]...)
	return string(out), true
}

// Rule routes requests whose path starts with MatchPrefix to Target.
type Rule struct {
	// MatchPrefix is the literal path prefix that activates the rule.
	MatchPrefix string

	// Target is the absolute origin (plus optional base path) that
	// matched requests are forwarded to.
	Target *url.URL

	// ChangeOrigin rewrites the forwarded Host header to Target's host.
	ChangeOrigin bool

	// PathRewrite is consulted in order; the first matching rewrite wins.
	PathRewrite []Rewrite

	// Secure verifies TLS certificates of https targets.
	Secure bool

	// XForwarded adds X-Forwarded-For, X-Forwarded-Host and X-Forwarded-Proto.
	XForwarded bool

	// Headers are set on every forwarded request.
	Headers map[string]string
}

// Validate checks the invariants every rule has to hold.
func (r *Rule) Validate() error {
	if r.MatchPrefix == "" {
		return fmt.Errorf("match prefix must not be empty")
	}
	if !strings.HasPrefix(r.MatchPrefix, "/") {
		return fmt.Errorf("match prefix %q must start with '/'", r.MatchPrefix)
	}
	if IsReserved(r.MatchPrefix) {
		return fmt.Errorf("match prefix %q is inside the reserved %s namespace", r.MatchPrefix, ReservedPrefix)
	}
	return ValidateTarget(r.Target)
}

// ValidateTarget reports whether u is an absolute http(s) URL with a host.
func ValidateTarget(u *url.URL) error {
	if u == nil {
		return fmt.Errorf("target is required")
	}
	if !u.IsAbs() {
		return fmt.Errorf("target %q is not an absolute URL", u.String())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target %q: unsupported scheme %q", u.String(), u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("target %q has no host", u.String())
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("target %q must not carry a query or fragment", u.String())
	}
	return nil
}

// Matches reports whether path falls under the rule's prefix.
func (r *Rule) Matches(path string) bool {
	return strings.HasPrefix(path, r.MatchPrefix)
}

// RewritePath applies the first matching rewrite to path.
func (r *Rule) RewritePath(path string) string {
	for _, rw := range r.PathRewrite {
		if out, ok := rw.Apply(path); ok {
			return out
		}
	}
	return path
}

// Destination returns the URL a request is forwarded to. escapedPath is
// the path as it appeared on the wire; rewrites run on it and percent
// encodings such as %2F reach the backend unchanged.
func (r *Rule) Destination(escapedPath, rawQuery string) *url.URL {
	dst := *r.Target
	joined := joinPath(r.Target.EscapedPath(), r.RewritePath(escapedPath))

	if unescaped, err := url.PathUnescape(joined); err == nil {
		dst.Path = unescaped
		dst.RawPath = joined
	} else {
		dst.Path = joined
		dst.RawPath = ""
	}
	dst.RawQuery = rawQuery
	return &dst
}

// OutboundHost is the Host header the backend sees for a request that
// arrived with inboundHost.
func (r *Rule) OutboundHost(inboundHost string) string {
	if r.ChangeOrigin {
		return r.Target.Host
	}
	return inboundHost
}

func joinPath(base, path string) string {
	switch {
	case path == "":
		if base == "" {
			return "/"
		}
		return base
	case base == "":
		if !strings.HasPrefix(path, "/") {
			return "/" + path
		}
		return path
	}

	base = strings.TrimSuffix(base, "/")
	path = strings.TrimPrefix(path, "/")
	return base + "/" + path
}
