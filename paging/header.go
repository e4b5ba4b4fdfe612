package paging

import (
	"fmt"
	"strings"
)

// FormatLinkHeader renders ls as a Link header value, one
// `<href>; rel="name"` entry per relation in insertion order. An empty set
// yields "", meaning no header is sent at all. Characters that cannot appear
// in a URI reference are percent-encoded so that a target never ends early.
func FormatLinkHeader(ls LinkSet) string {
	if ls.Len() == 0 {
		return ""
	}
	entries := make([]string, 0, ls.Len())
	for _, l := range ls.links {
		entries = append(entries, fmt.Sprintf(`<%s>; rel="%s"`, escapeTarget(l.Href), l.Rel))
	}
	return strings.Join(entries, ", ")
}

// escapeTarget percent-encodes angle brackets, quotes, whitespace and control
// characters. Everything else, including existing escapes, is left alone.
func escapeTarget(href string) string {
	if !strings.ContainsFunc(href, needsEscape) {
		return href
	}
	var sb strings.Builder
	for i := 0; i < len(href); i++ {
		c := href[i]
		if needsEscape(rune(c)) {
			fmt.Fprintf(&sb, "%%%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func needsEscape(r rune) bool {
	switch r {
	case '<', '>', '"', '\\', '^', '`', '{', '|', '}':
		return true
	}
	return r <= ' ' || r == 0x7f
}

// ParseLinkHeader reads a Link header value back into a LinkSet. Entries
// without a rel parameter are skipped.
func ParseLinkHeader(header string) (LinkSet, error) {
	var ls LinkSet
	rest := strings.TrimSpace(header)
	for rest != "" {
		if rest[0] != '<' {
			return LinkSet{}, fmt.Errorf("paging: malformed link header near %q", rest)
		}
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return LinkSet{}, fmt.Errorf("paging: unterminated link target in %q", rest)
		}
		href := rest[1:end]
		rest = rest[end+1:]

		params := rest
		if next := strings.IndexByte(rest, '<'); next >= 0 {
			params, rest = rest[:next], rest[next:]
		} else {
			rest = ""
		}

		for _, p := range strings.Split(params, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(strings.TrimRight(strings.TrimSpace(p), ",")), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(name), "rel") {
				continue
			}
			ls.Add(strings.Trim(strings.TrimSpace(value), `"`), href)
		}
	}
	return ls, nil
}
