package certificates

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// I, O, 0, 1 は紛らわしいので除外
const (
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 12
)

type CodeGen interface {
	New() (string, error)
}

// randomCodes: 1バイトの下位5bitで32文字から一様に選ぶ
type randomCodes struct{ r io.Reader }

func (g randomCodes) New() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := io.ReadFull(g.r, buf); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = CodeAlphabet[b&31]
	}
	return string(buf), nil
}

func NewCodeGen() CodeGen { return randomCodes{r: rand.Reader} }

// NormalizeCode upper-cases user input; stored codes are upper-case.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidCode reports whether s (already normalized) can be a verification code.
func ValidCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(CodeAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
