package codec

import (
	"bytes"
	"encoding/json"

	"github.com/wippyai/argon2-bridge/errors"
)

// Decode parses a buffer produced by Encode into v. The buffer must end
// with the terminator and contain no other NUL byte. Byte-sequence fields
// of v should be schema.Bytes.
func Decode(buf []byte, v any) error {
	body, err := Body(buf)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Decode("parse request", err)
	}
	return nil
}

// Body returns the JSON text of buf without its terminator.
func Body(buf []byte) ([]byte, error) {
	n := len(buf)
	if n == 0 || buf[n-1] != Terminator {
		return nil, errors.Decode("buffer is not NUL-terminated", nil)
	}
	if i := bytes.IndexByte(buf[:n-1], Terminator); i >= 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindEncoding).
			Value(i).
			Detail("embedded NUL byte at offset %d", i).
			Build()
	}
	return buf[:n-1], nil
}
