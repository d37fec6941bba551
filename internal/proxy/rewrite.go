package proxy

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// rewriteURIs returns payload with every string value equal to from
// replaced by to, walking objects and arrays recursively. Result shapes
// vary wildly across backends (Location, []Location, LocationLink,
// WorkspaceEdit, custom extensions), so the walk is shape-agnostic: any
// string anywhere that matches the identity is rewritten. Payloads that
// are not valid JSON are returned unchanged; a malformed reply should
// degrade to pass-through, not kill the feature.
func rewriteURIs(payload []byte, from, to DocumentURI) []byte {
	if len(payload) == 0 || from == to {
		return payload
	}
	if !gjson.ValidBytes(payload) {
		return payload
	}

	root := gjson.ParseBytes(payload)
	paths := collectStringPaths(root, "", string(from))
	if len(paths) == 0 {
		return payload
	}

	out := payload
	for _, p := range paths {
		next, err := sjson.SetBytes(out, p, string(to))
		if err != nil {
			return payload
		}
		out = next
	}
	return out
}

// collectStringPaths walks a parsed value and returns the sjson paths
// of every string leaf equal to match.
func collectStringPaths(v gjson.Result, prefix, match string) []string {
	var paths []string
	v.ForEach(func(key, val gjson.Result) bool {
		p := escapePathKey(key.String())
		if prefix != "" {
			p = prefix + "." + p
		}
		switch {
		case val.IsObject() || val.IsArray():
			paths = append(paths, collectStringPaths(val, p, match)...)
		case val.Type == gjson.String && val.String() == match:
			paths = append(paths, p)
		}
		return true
	})
	return paths
}

// escapePathKey escapes characters significant in gjson/sjson paths.
func escapePathKey(k string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`)
	return r.Replace(k)
}
