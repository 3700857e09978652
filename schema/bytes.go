package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Bytes is a byte sequence carried across the boundary as a JSON array of
// integers (0-255). Unlike []byte under encoding/json it is not base64 text,
// which is the form the native module parses.
type Bytes []byte

// MarshalJSON writes b as an array of integers. A nil Bytes is written as
// an empty array.
func (b Bytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(b)*4)
	out = append(out, '[')
	for i, v := range b {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(v), 10)
	}
	return append(out, ']'), nil
}

// UnmarshalJSON reads an array of integers in the range 0-255. JSON null
// yields a nil Bytes.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	var values []int64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("schema: byte sequence must be an array of integers: %w", err)
	}
	out := make(Bytes, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("schema: byte sequence element %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
