// Package codec turns bridge requests into the flat buffer both transports
// accept, and back.
//
// The buffer is JSON text followed by a single NUL byte. Byte sequences are
// written as arrays of integers, so every byte value, including 0x00 and
// bytes that do not form valid text, survives the boundary. The terminator
// lets the native side find the end of the buffer without a length
// argument; escaping guarantees no other 0x00 byte appears in it.
//
//	buf, err := codec.Encode(schema.HashParams{Password: "pw", Options: opts})
//	// {"password":"pw","options":{"salt":[1,2,3,...]}}\x00
//
// Encoding is a pure function of its input.
package codec
