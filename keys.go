package openidredis

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"
)

// nonceMarker separates the nonce sub-namespace from association keys.
// Association keys place the URL scheme right after the prefix, so the
// only way into this sub-namespace from the association side would be a
// server URL whose scheme is the literal string "nonce", which no OpenID
// endpoint uses.
const nonceMarker = "-nonce-"

// safe64 hashes s with SHA-1 and encodes the digest in base64, then swaps
// the characters that are awkward in key names: '+' becomes '_', '/'
// becomes '.', and '=' padding is dropped.
func safe64(s string) string {
	sum := sha1.Sum([]byte(s))
	h64 := base64.StdEncoding.EncodeToString(sum[:])
	h64 = strings.ReplaceAll(h64, "+", "_")
	h64 = strings.ReplaceAll(h64, "/", ".")
	h64 = strings.ReplaceAll(h64, "=", "")
	return h64
}

// filenameEscape replaces every byte outside [A-Za-z0-9.] with _XX, where
// XX is the byte's value in uppercase hex.
//
// The input is iterated as raw UTF-8 bytes, not code points, so a
// non-ASCII domain escapes to one _XX group per byte. This keeps escaped
// keys pure ASCII and matches how pre-encoded byte strings were escaped
// historically; it is part of key identity, so changing the convention
// would orphan stored records for non-ASCII server URLs.
func filenameEscape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z',
			c >= 'a' && c <= 'z',
			c >= '0' && c <= '9',
			c == '.':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String()
}

// splitServerURL decomposes a server URL into its scheme and the text
// after "://". The separator is required; there is no attempt at full URL
// parsing beyond it.
func splitServerURL(serverURL string) (scheme, rest string, err error) {
	i := strings.Index(serverURL, "://")
	if i == -1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidURL, serverURL)
	}
	return serverURL[:i], serverURL[i+3:], nil
}

// domainOf extracts the host-ish portion of the text after the scheme:
// everything up to the first path separator. It exists purely to make keys
// human-traceable; the URL hash is what makes them unique.
func domainOf(rest string) string {
	if i := strings.IndexByte(rest, '/'); i != -1 {
		rest = rest[:i]
	}
	return filenameEscape(rest)
}

// associationKey builds the storage key for an association:
//
//	prefix-scheme-domain-urlHash-handleHash
//
// An empty handle yields an empty handle hash, so the key ends with its
// final separator. That string is the server-level prefix: every key for
// the same server URL starts with it, which is what lets GetAssociation
// enumerate a server's associations with a prefix scan.
func associationKey(prefix, serverURL, handle string) (string, error) {
	scheme, rest, err := splitServerURL(serverURL)
	if err != nil {
		return "", err
	}
	handleHash := ""
	if handle != "" {
		handleHash = safe64(handle)
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		prefix, scheme, domainOf(rest), safe64(serverURL), handleHash), nil
}

// nonceKey builds the storage key for a single-use nonce:
//
//	prefix-nonce-XXXXXXXX-scheme-domain-urlHash-saltHash
//
// with the timestamp zero-padded to eight lowercase hex digits. The server
// URL may be empty here: consumer-generated nonces carry no URL, and in
// that case the scheme and domain components are simply empty rather than
// an error. A non-empty URL still needs its "://" separator.
func nonceKey(prefix, serverURL string, timestamp int64, salt string) (string, error) {
	var scheme, rest string
	if serverURL != "" {
		var err error
		if scheme, rest, err = splitServerURL(serverURL); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s%s%08x-%s-%s-%s-%s",
		prefix, nonceMarker, timestamp, scheme, domainOf(rest),
		safe64(serverURL), safe64(salt)), nil
}
