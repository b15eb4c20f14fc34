package aggr

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Key is a bucket key, the backend sends either a string or a number
type Key struct {
	str   string
	num   float64
	isNum bool
	// raw is the integer literal as received, num may have lost digits above 2^53
	raw string
}

func StringKey(s string) Key {
	return Key{str: s}
}

func NumberKey(n float64) Key {
	return Key{num: n, isNum: true}
}

// ParseNumberKey reads a numeric key from text, integer literals keep every digit
func ParseNumberKey(text string) (Key, bool) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Key{}, false
	}
	k := NumberKey(n)
	if isIntegerLiteral(text) {
		k.raw = text
	}
	return k, true
}

func isIntegerLiteral(text string) bool {
	digits := strings.TrimPrefix(text, "-")
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

func (k Key) IsNumber() bool {
	return k.isNum
}

// Number returns the numeric value, ok is false for string keys
func (k Key) Number() (float64, bool) {
	return k.num, k.isNum
}

// String renders the key the way the backend would print it:
// integral numbers without a fraction, other numbers in shortest form
func (k Key) String() string {
	if !k.isNum {
		return k.str
	}
	if k.raw != "" {
		return k.raw
	}
	if k.num == math.Trunc(k.num) && math.Abs(k.num) < 1e21 {
		return strconv.FormatFloat(k.num, 'f', -1, 64)
	}
	return strconv.FormatFloat(k.num, 'g', -1, 64)
}

// Index resolves the key to a position in a sequence of length n.
// Integral numbers and canonical decimal strings in [0, n) resolve,
// everything else does not.
func (k Key) Index(n int) (int, bool) {
	if k.isNum {
		if k.num != math.Trunc(k.num) || k.num < 0 || k.num >= float64(n) {
			return 0, false
		}
		return int(k.num), true
	}
	if k.str == "" || (len(k.str) > 1 && k.str[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(k.str); i++ {
		if k.str[i] < '0' || k.str[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(k.str)
	if err != nil || i >= n {
		return 0, false
	}
	return i, true
}

func (k Key) MarshalJSON() ([]byte, error) {
	if k.raw != "" {
		return []byte(k.raw), nil
	}
	if k.isNum {
		return json.Marshal(k.num)
	}
	return json.Marshal(k.str)
}

func (k *Key) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty bucket key")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "bad string bucket key")
		}
		*k = StringKey(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return errors.Wrap(err, "bad boolean bucket key")
		}
		*k = StringKey(strconv.FormatBool(b))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Wrapf(err, "bucket key %s is neither string nor number", data)
		}
		key, ok := ParseNumberKey(n.String())
		if !ok {
			return errors.Errorf("bucket key %s is out of range", data)
		}
		*k = key
	}
	return nil
}
