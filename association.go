package openidredis

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Association is a shared secret negotiated between an OpenID relying
// party and a provider, identified by Handle within a server URL. Issued
// and Lifetime are in seconds since the epoch and seconds from Issued,
// respectively.
type Association struct {
	Handle    string
	Secret    []byte
	Issued    int64
	Lifetime  int64
	AssocType string
}

// ExpiresIn reports how many seconds the association remains valid as of
// now. The value is recomputed against the current clock rather than the
// issue time, which tolerates storage latency and clock skew between
// issuance and persistence. Non-positive means already expired.
func (a *Association) ExpiresIn(now time.Time) int64 {
	return (a.Issued - now.Unix()) + a.Lifetime
}

// Codec turns associations into the opaque bytes the store persists and
// back. The store never looks inside the encoded form.
type Codec interface {
	Encode(a *Association) ([]byte, error)
	Decode(b []byte) (*Association, error)
}

// KVFormCodec encodes associations as "key:value" lines, the wire format
// used by existing OpenID protocol libraries for serialized associations.
// A Go relying party using this codec can share a store with deployments
// that wrote their records through one of those libraries.
//
// The encoded form is:
//
//	version:2
//	handle:<handle>
//	secret:<base64 secret>
//	issued:<unix seconds>
//	lifetime:<seconds>
//	assoc_type:<type>
type KVFormCodec struct{}

var _ Codec = KVFormCodec{}

// Field order is fixed so encoding is deterministic.
var kvformFields = []string{"version", "handle", "secret", "issued", "lifetime", "assoc_type"}

// Encode serializes a. Handle and AssocType must not contain newlines,
// since the format is line-oriented.
func (KVFormCodec) Encode(a *Association) ([]byte, error) {
	values := map[string]string{
		"version":    "2",
		"handle":     a.Handle,
		"secret":     base64.StdEncoding.EncodeToString(a.Secret),
		"issued":     strconv.FormatInt(a.Issued, 10),
		"lifetime":   strconv.FormatInt(a.Lifetime, 10),
		"assoc_type": a.AssocType,
	}
	var b bytes.Buffer
	for _, field := range kvformFields {
		v := values[field]
		if strings.ContainsAny(v, "\n") {
			return nil, fmt.Errorf("association %s must not contain a newline", field)
		}
		fmt.Fprintf(&b, "%s:%s\n", field, v)
	}
	return b.Bytes(), nil
}

// Decode parses the line format produced by Encode. Every field is
// required, and unknown versions are rejected rather than guessed at.
func (KVFormCodec) Decode(b []byte) (*Association, error) {
	values := make(map[string]string, len(kvformFields))
	for _, line := range strings.Split(strings.TrimSuffix(string(b), "\n"), "\n") {
		k, v, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("%w: line %q has no separator", ErrBadAssociation, line)
		}
		values[k] = v
	}
	for _, field := range kvformFields {
		if _, ok := values[field]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrBadAssociation, field)
		}
	}
	if values["version"] != "2" {
		return nil, fmt.Errorf("%w: unknown version %q", ErrBadAssociation, values["version"])
	}
	secret, err := base64.StdEncoding.DecodeString(values["secret"])
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable secret: %v", ErrBadAssociation, err)
	}
	issued, err := strconv.ParseInt(values["issued"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad issued timestamp %q", ErrBadAssociation, values["issued"])
	}
	lifetime, err := strconv.ParseInt(values["lifetime"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad lifetime %q", ErrBadAssociation, values["lifetime"])
	}
	return &Association{
		Handle:    values["handle"],
		Secret:    secret,
		Issued:    issued,
		Lifetime:  lifetime,
		AssocType: values["assoc_type"],
	}, nil
}
