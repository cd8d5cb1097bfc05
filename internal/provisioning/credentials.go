package provisioning

import (
	"crypto/rand"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/traidnet/wificore/internal/common/errorx"
)

// passwordAlphabet leaves out look-alike characters; these credentials get
// read to customers over the phone.
const passwordAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// generatedPasswordLength is the length of auto-generated credentials.
const generatedPasswordLength = 8

// UsernameFromPhone derives a hotspot username from a phone number: the
// digits only, so "+254 712 345678" and "0712345678" normalize predictably.
func UsernameFromPhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < 6 {
		return "", errorx.New(errorx.KindInvalidArgument, fmt.Sprintf("phone number %q has too few digits", phone))
	}
	return b.String(), nil
}

// GeneratePassword returns a fresh random credential.
func GeneratePassword() (string, error) {
	buf := make([]byte, generatedPasswordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, generatedPasswordLength)
	for i, v := range buf {
		out[i] = passwordAlphabet[int(v)%len(passwordAlphabet)]
	}
	return string(out), nil
}

// HashPassword is the application-side hash stored on the subscriber row.
// The AAA tables carry their own representations.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
