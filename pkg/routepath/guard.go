package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Decode guard rejections, one per check. The router discards them and
// reports a plain non-match; they exist for logging and tests.
var (
	ErrEncodedSlash         = errors.New("encoded slash in raw segment")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrSlashInValue         = errors.New("decoded segment contains slash")
	ErrDoubleEncodedSlash   = errors.New("decoded segment still contains encoded slash")
)

const encodedSlash = "%2f"

// DecodeParam decodes a raw segment bound to a route parameter.
// It reports false when any check rejects the segment.
func DecodeParam(raw string) (string, bool) {
	v, err := Check(raw)
	return v, err == nil
}

// Check runs the decode guard and returns the first rejection.
//
// The checks run in order and stop at the first failure:
//  1. the raw segment must not contain %2F (any case);
//  2. the segment must percent-decode cleanly;
//  3. the decoded value must not contain "/";
//  4. the decoded value must not contain %2F either, which is what a
//     double-encoded slash (%252F) turns into after one decode.
func Check(raw string) (string, error) {
	if containsFold(raw, encodedSlash) {
		return "", ErrEncodedSlash
	}
	if strings.IndexByte(raw, '%') < 0 {
		return raw, nil
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.IndexByte(decoded, '/') >= 0 {
		return "", ErrSlashInValue
	}
	if containsFold(decoded, encodedSlash) {
		return "", ErrDoubleEncodedSlash
	}
	return decoded, nil
}

// containsFold reports whether sub (lowercase ASCII) is within s, ignoring case.
func containsFold(s, sub string) bool {
	if len(s) < len(sub) {
		return false
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return true
		}
	}
	return false
}
