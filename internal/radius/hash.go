package radius

import (
	"encoding/hex"
	"unicode/utf16"

	"golang.org/x/crypto/md4" //nolint:staticcheck // NT-Password is defined over MD4
)

// NTHash computes the NT password hash: MD4 over the UTF-16LE encoding of
// the password, hex-encoded uppercase-insensitively (FreeRADIUS accepts
// either case; we emit lowercase).
func NTHash(password string) string {
	encoded := utf16.Encode([]rune(password))
	buf := make([]byte, len(encoded)*2)
	for i, r := range encoded {
		buf[i*2] = byte(r)
		buf[i*2+1] = byte(r >> 8)
	}
	h := md4.New()
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}
