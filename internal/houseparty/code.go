package houseparty

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CodeAlphabet omits I, O, 0 and 1.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const CodeLength = 5

// NewCode returns a random party code. len(CodeAlphabet) divides 256, so
// reducing each random byte modulo it keeps the draw uniform.
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for i := range buf {
		buf[i] = CodeAlphabet[int(buf[i])%len(CodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode maps user input onto the stored form of a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}
