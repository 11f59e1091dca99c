package recall

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const idSuffixLen = 9

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewRecordID returns a time-prefixed identifier with a short random suffix.
// Uniqueness is probabilistic, not guaranteed; the store enforces a UNIQUE
// constraint as a backstop.
func NewRecordID() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	b.WriteByte('-')
	for i := 0; i < idSuffixLen; i++ {
		b.WriteByte(base36[rand.Intn(len(base36))])
	}
	return b.String()
}
