package robokassa

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

type HashAlgorithm string

const (
	HashMD5    HashAlgorithm = "MD5"
	HashSHA256 HashAlgorithm = "SHA256"
)

// startBase is MerchantLogin:OutSum:InvId:Password1[:Shp_k=v...].
func startBase(login, outSum, invID, password1 string, shp map[string]string) string {
	parts := append([]string{login, outSum, invID, password1}, shpPairs(shp)...)
	return strings.Join(parts, ":")
}

// resultBase is OutSum:InvId:Password2[:Shp_k=v...].
func resultBase(outSum, invID, password2 string, shp map[string]string) string {
	parts := append([]string{outSum, invID, password2}, shpPairs(shp)...)
	return strings.Join(parts, ":")
}

// Sign hashes base with algo and returns lowercase hex.
func Sign(base string, algo HashAlgorithm) (string, error) {
	switch algo {
	case HashMD5:
		h := md5.Sum([]byte(base))
		return hex.EncodeToString(h[:]), nil
	case HashSHA256, "":
		h := sha256.Sum256([]byte(base))
		return hex.EncodeToString(h[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

func signaturesEqual(expected, received string) bool {
	return subtle.ConstantTimeCompare(
		[]byte(strings.ToLower(strings.TrimSpace(expected))),
		[]byte(strings.ToLower(strings.TrimSpace(received))),
	) == 1
}

// Shp_ parameters are appended sorted case-insensitively by key.
func shpPairs(shp map[string]string) []string {
	keys := make([]string, 0, len(shp))
	for k := range shp {
		if strings.HasPrefix(strings.ToLower(k), "shp_") {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return strings.ToLower(keys[i]) < strings.ToLower(keys[j]) })

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(shp[k]))
	}
	return pairs
}
