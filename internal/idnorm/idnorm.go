// Package idnorm normalizes node identifiers at every ingress boundary:
// public URLs encode ids with '-'; the design API and the cache key both
// require ':' (spec.md §6).
package idnorm

import (
	"net/url"
	"strings"
)

// Normalize rewrites every '-' to ':'. It is idempotent: Normalize is a
// no-op on an already-normalized string since ':' is left untouched.
func Normalize(id string) string {
	if !strings.ContainsRune(id, '-') {
		return id
	}
	return strings.ReplaceAll(id, "-", ":")
}

// FromURL parses a design-file URL of the form
// https://host/file/<file_key>/<name>?node-id=<node_id> and recovers the
// {file_key, node_id} pair, normalizing node_id on the way out.
func FromURL(raw string) (fileKey, nodeID string, ok bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if (p == "file" || p == "design" || p == "proto") && i+1 < len(parts) {
			fileKey = parts[i+1]
			break
		}
	}
	if fileKey == "" {
		return "", "", false
	}
	q := u.Query()
	id := q.Get("node-id")
	if id == "" {
		id = q.Get("node_id")
	}
	if id == "" {
		return fileKey, "", true
	}
	return fileKey, Normalize(id), true
}

// Resolve implements spec.md §4.2's "an explicit pair wins if both are
// given" rule: when both an explicit file_key/node_id and a url are
// present, the explicit pair is used; otherwise the url is parsed.
func Resolve(fileKey, nodeID, rawURL string) (resolvedFileKey, resolvedNodeID string, ok bool) {
	if fileKey != "" && nodeID != "" {
		return fileKey, Normalize(nodeID), true
	}
	if rawURL != "" {
		urlFileKey, urlNodeID, parsed := FromURL(rawURL)
		if parsed {
			if fileKey == "" {
				fileKey = urlFileKey
			}
			if nodeID == "" {
				nodeID = urlNodeID
			}
			return fileKey, Normalize(nodeID), fileKey != "" && nodeID != ""
		}
	}
	if fileKey == "" || nodeID == "" {
		return "", "", false
	}
	return fileKey, Normalize(nodeID), true
}
