// SPDX-License-Identifier: Apache-2.0

// Package endpoint composes beacon endpoint URLs from a root URL, relative
// paths and template variables.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"
)

// Var binds a URL template placeholder name to a literal value.
// A placeholder is written {name} in the un-encoded URL and appears as
// %7Bname%7D once the URL is serialized.
type Var struct {
	Name  string
	Value string
}

// Join appends the path of rel to the path of root and returns the combined
// URL. Everything except the path (scheme, host, user info, query, fragment)
// is taken from root unchanged. The leading root marker of rel's path is
// skipped, so Join(https://host/api, /biosamples) yields
// https://host/api/biosamples.
//
// Join never fails for well-formed inputs; both paths are reduced to their
// non-empty segments before concatenation, which collapses repeated
// separators and drops any trailing slash.
func Join(root, rel *url.URL) *url.URL {
	joined := *root

	segs := pathSegments(root.Path)
	segs = append(segs, pathSegments(rel.Path)...)

	path := strings.Join(segs, "/")
	if strings.HasPrefix(root.Path, "/") || path != "" {
		path = "/" + path
	}
	joined.Path = path
	// The recombined path is plain text; any stale encoding hint from root
	// must not survive.
	joined.RawPath = ""
	return &joined
}

// pathSegments splits a URL path into its non-empty segments.
func pathSegments(p string) []string {
	var segs []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			segs = append(segs, s)
		}
	}
	return segs
}

// SubstituteVars replaces every occurrence of each {name} placeholder in the
// serialized form of u with the bound value and re-parses the result.
// Substitution operates on the serialized URL, so a placeholder is matched
// as %7Bname%7D where serialization percent-encodes it (the path) and as
// {name} where it does not (the query). Bindings are applied sequentially
// against the running string: each substitution sees the output of the
// previous one, and all bindings take effect.
//
// The only failure mode is the substituted string no longer parsing as a URL,
// which happens when a bound value injects characters the URL grammar
// rejects.
func SubstituteVars(u *url.URL, vars []Var) (*url.URL, error) {
	raw := u.String()
	for _, v := range vars {
		// Path serialization percent-encodes braces; query serialization
		// keeps them literal. Both spellings name the same placeholder.
		raw = strings.ReplaceAll(raw, "%7B"+v.Name+"%7D", v.Value)
		raw = strings.ReplaceAll(raw, "{"+v.Name+"}", v.Value)
	}
	substituted, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("substituted URL %q does not parse: %w", raw, err)
	}
	return substituted, nil
}
