package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// GenerateTicketCode returns a human readable ticket code like
// TKT-9F2A04C1B7D63E58. The code is printed on the ticket and is distinct
// from the redemption token.
func GenerateTicketCode() (string, error) {
	code, err := GenerateCode(8)
	if err != nil {
		return "", err
	}

	return "TKT-" + code, nil
}

// GenerateQRToken returns an unguessable redemption token. The token is the
// sole entry capability, so it must not be derivable from any record id.
func GenerateQRToken() (string, error) {
	byt := make([]byte, 32)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(byt), nil
}

// GenerateCode returns n random bytes as an uppercase hex string.
func GenerateCode(n int) (string, error) {
	byt := make([]byte, n)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
