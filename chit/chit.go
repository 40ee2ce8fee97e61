package chit

import (
	"errors"
	"math/big"
	"regexp"
)

var ErrMalformed = errors.New("malformed chit")

// Pattern for picking the data out of chits, as put together by the client:
// question id, then the voter's secret number, then an optional payload.
// The payload is empty for a me chit and is the chosen response text for a
// response chit.
var chitPattern = regexp.MustCompile(`^(\w+) (\d+)(?: (.*))?$`)

// Chit is the parsed form of the token voters get signed and cast.
type Chit struct {
	QuestionID string
	Secret     string
	Payload    string
}

// Parse splits a chit against the grammar "<question-id> <secret> [payload]".
// The secret is never interpreted beyond equality comparison.
func Parse(s string) (Chit, error) {
	m := chitPattern.FindStringSubmatch(s)
	if m == nil {
		return Chit{}, ErrMalformed
	}
	return Chit{QuestionID: m[1], Secret: m[2], Payload: m[3]}, nil
}

// Encode converts a big integer to the compact base-36 text form used on the
// wire for blinded chits and signatures.
func Encode(v *big.Int) string {
	return v.Text(36)
}

// Decode reads a big integer from the compact base-36 text form.
func Decode(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 36)
	if !ok {
		return nil, ErrMalformed
	}
	return v, nil
}
