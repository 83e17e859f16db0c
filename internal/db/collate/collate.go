// Package collate encodes composite view keys into byte strings whose
// lexicographic order matches view collation: null < false < true < numbers <
// strings < arrays < objects < High. Strings compare bytewise.
//
// Encoded keys never contain the two-byte sequence 0x00 0x00, so callers may
// use it as a field separator after a key.
package collate

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	tagNull   byte = 0x01
	tagFalse  byte = 0x02
	tagTrue   byte = 0x03
	tagNumber byte = 0x04
	tagString byte = 0x05
	tagArray  byte = 0x06
	tagObject byte = 0x07
	tagHigh   byte = 0xFE

	esc      byte = 0x00
	escZero  byte = 0xFF
	escClose byte = 0x01
)

// Separator is the byte sequence that never occurs inside an encoded key.
const Separator = "\x00\x00"

type highKey struct{}

// High sorts after every other value. It plays the role of `{}` in an end key.
var High any = highKey{}

// ErrMalformed is returned by Decode for input that was not produced by Encode.
var ErrMalformed = errors.New("collate: malformed key")

// Encode encodes the elements of a composite key.
func Encode(key []any) string {
	var buf bytes.Buffer
	for _, v := range key {
		encodeValue(&buf, v)
	}
	return buf.String()
}

// EncodeValue encodes a single value, used for sort comparisons.
func EncodeValue(v any) string {
	var buf bytes.Buffer
	encodeValue(&buf, v)
	return buf.String()
}

// Compare orders two values by collation.
func Compare(a, b any) int {
	return bytes.Compare([]byte(EncodeValue(a)), []byte(EncodeValue(b)))
}

func encodeValue(buf *bytes.Buffer, v any) {
	switch x := v.(type) {
	case nil:
		buf.WriteByte(tagNull)
	case highKey:
		buf.WriteByte(tagHigh)
	case bool:
		if x {
			buf.WriteByte(tagTrue)
		} else {
			buf.WriteByte(tagFalse)
		}
	case string:
		buf.WriteByte(tagString)
		writeEscaped(buf, x)
	case []any:
		buf.WriteByte(tagArray)
		for _, e := range x {
			encodeValue(buf, e)
		}
		buf.WriteByte(esc)
		buf.WriteByte(escClose)
	case []string:
		buf.WriteByte(tagArray)
		for _, e := range x {
			encodeValue(buf, e)
		}
		buf.WriteByte(esc)
		buf.WriteByte(escClose)
	case map[string]any:
		// An empty object is the conventional "highest" end-key marker.
		if len(x) == 0 {
			buf.WriteByte(tagHigh)
			return
		}
		buf.WriteByte(tagObject)
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteByte(tagString)
			writeEscaped(buf, k)
			encodeValue(buf, x[k])
		}
		buf.WriteByte(esc)
		buf.WriteByte(escClose)
	default:
		f, ok := toFloat(v)
		if !ok {
			// Unknown types collate as their JSON text.
			raw, _ := json.Marshal(v)
			buf.WriteByte(tagString)
			writeEscaped(buf, string(raw))
			return
		}
		buf.WriteByte(tagNumber)
		buf.WriteString(encodeFloat(f))
	}
}

func writeEscaped(buf *bytes.Buffer, s string) {
	for i := 0; i < len(s); i++ {
		if s[i] == esc {
			buf.WriteByte(esc)
			buf.WriteByte(escZero)
			continue
		}
		buf.WriteByte(s[i])
	}
	buf.WriteByte(esc)
	buf.WriteByte(escClose)
}

// encodeFloat maps a float64 onto 16 hex digits that sort numerically.
func encodeFloat(f float64) string {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	return hex.EncodeToString(b[:])
}

func decodeFloat(s string) (float64, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 8 {
		return 0, ErrMalformed
	}
	bits := binary.BigEndian.Uint64(b)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Decode reverses Encode. Numbers decode as float64, High as High.
func Decode(s string) ([]any, error) {
	d := decoder{s: s}
	var out []any
	for d.pos < len(d.s) {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type decoder struct {
	s   string
	pos int
}

func (d *decoder) atClose() bool {
	return d.pos+1 < len(d.s) && d.s[d.pos] == esc && d.s[d.pos+1] == escClose
}

func (d *decoder) value() (any, error) {
	if d.pos >= len(d.s) {
		return nil, ErrMalformed
	}
	tag := d.s[d.pos]
	d.pos++
	switch tag {
	case tagNull:
		return nil, nil
	case tagFalse:
		return false, nil
	case tagTrue:
		return true, nil
	case tagHigh:
		return High, nil
	case tagNumber:
		if d.pos+16 > len(d.s) {
			return nil, ErrMalformed
		}
		f, err := decodeFloat(d.s[d.pos : d.pos+16])
		d.pos += 16
		return f, err
	case tagString:
		return d.str()
	case tagArray:
		arr := []any{}
		for !d.atClose() {
			v, err := d.value()
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		d.pos += 2
		return arr, nil
	case tagObject:
		obj := map[string]any{}
		for !d.atClose() {
			if d.pos >= len(d.s) || d.s[d.pos] != tagString {
				return nil, ErrMalformed
			}
			d.pos++
			k, err := d.str()
			if err != nil {
				return nil, err
			}
			v, err := d.value()
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		d.pos += 2
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrMalformed, tag)
	}
}

func (d *decoder) str() (string, error) {
	var buf bytes.Buffer
	for d.pos < len(d.s) {
		c := d.s[d.pos]
		if c != esc {
			buf.WriteByte(c)
			d.pos++
			continue
		}
		if d.pos+1 >= len(d.s) {
			return "", ErrMalformed
		}
		switch d.s[d.pos+1] {
		case escZero:
			buf.WriteByte(esc)
			d.pos += 2
		case escClose:
			d.pos += 2
			return buf.String(), nil
		default:
			return "", ErrMalformed
		}
	}
	return "", ErrMalformed
}
