package hibp

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Hash and hash part length constants.
const (
	// DigestLen is the encoded length of a SHA-1 digest.
	DigestLen = sha1.Size * 2

	// PrefixLen is the number of digest characters disclosed to the range API.
	PrefixLen = 5

	// SuffixLen is the number of digest characters that never leave the caller.
	SuffixLen = DigestLen - PrefixLen
)

// Digest is a SHA-1 digest rendered as 40 uppercase hex characters.
type Digest string

// Split is the k-anonymity partition of a [Digest].
type Split struct {
	Prefix string
	Suffix string
}

// HashSecret returns the uppercase hex SHA-1 digest of secret. The bytes are
// hashed exactly as given; an empty secret is valid.
func HashSecret(secret []byte) Digest {
	sum := sha1.Sum(secret)
	return Digest(strings.ToUpper(hex.EncodeToString(sum[:])))
}

// Split partitions d into its disclosed prefix and withheld suffix.
func (d Digest) Split() Split {
	s := string(d)
	if len(s) < PrefixLen {
		return Split{Prefix: s}
	}
	return Split{Prefix: s[:PrefixLen], Suffix: s[PrefixLen:]}
}

// Valid reports whether d is exactly 40 uppercase hex characters.
func (d Digest) Valid() bool {
	return len(d) == DigestLen && isUpperHex(string(d))
}

// Digest reassembles the full digest.
func (s Split) Digest() Digest {
	return Digest(s.Prefix + s.Suffix)
}

// Valid reports whether s has a 5-character prefix and a 35-character suffix,
// both uppercase hex.
func (s Split) Valid() bool {
	return len(s.Prefix) == PrefixLen &&
		len(s.Suffix) == SuffixLen &&
		isUpperHex(s.Prefix) &&
		isUpperHex(s.Suffix)
}

// SplitSecret hashes secret and splits the digest in one step.
func SplitSecret(secret []byte) Split {
	return HashSecret(secret).Split()
}

func isUpperHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return s != ""
}
