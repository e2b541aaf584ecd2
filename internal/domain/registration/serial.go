package registration

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const serialAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewSerial returns "SP", the last six digits of t in Unix milliseconds and
// three random base-36 characters, e.g. SP482913K7Q.
func NewSerial(t time.Time) string {
	suffix := make([]byte, 3)
	max := big.NewInt(int64(len(serialAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(t.UnixNano() % int64(len(serialAlphabet)))
		}
		suffix[i] = serialAlphabet[n.Int64()]
	}
	return fmt.Sprintf("SP%06d%s", t.UnixMilli()%1_000_000, suffix)
}
