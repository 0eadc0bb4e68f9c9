// Package auth implements the possession-token primitives: the wire codec for
// (user ID, token value) pairs and the in-memory cache of tokens that still
// await confirmation by the identity authority.
package auth

import (
	"math"
	"strings"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// EncodeToken renders the credential as <base62(userID)>:<base62(value)>.
func EncodeToken(userID, value uint64) string {
	return encodeBase62(userID) + common.TokenDelimiter + encodeBase62(value)
}

// DecodeToken parses a string produced by EncodeToken. It fails with
// common.ErrInvalidToken unless s is exactly two non-empty base62 runs joined
// by one delimiter, each fitting in 64 bits and free of leading zeros.
func DecodeToken(s string) (userID, value uint64, err error) {
	parts := strings.Split(s, common.TokenDelimiter)
	if len(parts) != 2 {
		return 0, 0, common.ErrInvalidToken
	}
	userID, ok := decodeBase62(parts[0])
	if !ok {
		return 0, 0, common.ErrInvalidToken
	}
	value, ok = decodeBase62(parts[1])
	if !ok {
		return 0, 0, common.ErrInvalidToken
	}
	return userID, value, nil
}

func encodeBase62(v uint64) string {
	if v == 0 {
		return base62Alphabet[:1]
	}
	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = base62Alphabet[v%62]
		v /= 62
	}
	return string(buf[i:])
}

// decodeBase62 accepts only the canonical spelling EncodeToken produces, so
// a credential has exactly one wire form.
func decodeBase62(s string) (uint64, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		d, ok := base62Digit(s[i])
		if !ok {
			return 0, false
		}
		if v > (math.MaxUint64-d)/62 {
			return 0, false
		}
		v = v*62 + d
	}
	return v, true
}

func base62Digit(c byte) (uint64, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint64(c - '0'), true
	case c >= 'A' && c <= 'Z':
		return uint64(c-'A') + 10, true
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 36, true
	default:
		return 0, false
	}
}
