// Package routepath normalizes request paths into the form the route
// matcher consumes: a single leading slash, no trailing slash except the
// root, dot segments resolved and every component percent-decoded.
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Path normalization errors.
var (
	ErrInvalidPath          = errors.New("routepath: invalid path")
	ErrBackslashInPath      = errors.New("routepath: path contains backslash")
	ErrNullByteInPath       = errors.New("routepath: path contains null byte")
	ErrInvalidPercentEscape = errors.New("routepath: invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("routepath: path escapes root via ..")
	ErrEncodedSlash         = errors.New("routepath: encoded slash (%2F) in path component")
)

// Normalized is a request path ready for matching.
type Normalized struct {
	// Path is the canonical, still-encoded path.
	Path string

	// Decoded is Path with every component percent-decoded.
	Decoded string

	// Segments are the decoded components. Nil for the root.
	Segments []string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// Normalize canonicalizes input and decodes its components.
//
// Trailing slashes are removed (except for the root), repeated slashes
// collapse, "." components are dropped and ".." components are resolved.
// Backslashes, NUL bytes, malformed escapes, encoded slashes and ".."
// escaping the root are rejected.
func Normalize(input string) (Normalized, error) {
	raw, query := SplitPathAndQuery(input)
	if raw == "" {
		return Normalized{Path: "/", Decoded: "/", Query: query, Changed: true}, nil
	}

	if strings.Contains(raw, "\\") {
		return Normalized{}, ErrBackslashInPath
	}
	if strings.Contains(raw, "\x00") || strings.Contains(strings.ToUpper(raw), "%00") {
		return Normalized{}, ErrNullByteInPath
	}
	if strings.Contains(raw, "%") {
		if err := validatePercentEscapes(raw); err != nil {
			return Normalized{}, err
		}
	}

	var encoded []string
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(encoded) == 0 {
				return Normalized{}, ErrPathEscapesRoot
			}
			encoded = encoded[:len(encoded)-1]
		default:
			encoded = append(encoded, seg)
		}
	}

	n := Normalized{
		Path:  "/" + strings.Join(encoded, "/"),
		Query: query,
	}
	n.Changed = n.Path != raw

	for _, seg := range encoded {
		decoded, err := DecodeSegment(seg)
		if err != nil {
			return Normalized{}, err
		}
		n.Segments = append(n.Segments, decoded)
	}
	n.Decoded = "/" + strings.Join(n.Segments, "/")
	return n, nil
}

// DecodeSegment decodes one path component. A component decoding to text
// containing "/" is rejected so that captured parameters cannot smuggle
// extra path levels.
func DecodeSegment(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.Contains(decoded, "/") {
		return "", ErrEncodedSlash
	}
	return decoded, nil
}

// ValidateNavPath normalizes a client navigation target. Targets must be
// site-relative: absolute and protocol-relative URLs are rejected.
func ValidateNavPath(target string) (string, error) {
	if strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//") ||
		!strings.HasPrefix(target, "/") {
		return "", ErrInvalidPath
	}
	n, err := Normalize(target)
	if err != nil {
		return "", err
	}
	if n.Query != "" {
		return n.Path + "?" + n.Query, nil
	}
	return n.Path, nil
}

// SplitPathAndQuery splits input at the first "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

// validatePercentEscapes checks that every '%' starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
