// Package kdf is a pure-Go implementation of the module the bridge talks
// to: it parses encoded requests, runs Argon2 and produces or checks
// encoded hash strings.
//
// It supports the three variants (argon2d, argon2i, argon2id), both format
// versions (0x10 and 0x13), a secret key and associated data, which
// golang.org/x/crypto/argon2 does not expose. Without secret and associated
// data, version 0x13 output is identical to that package.
//
// Encoded hashes use the PHC string format:
//
//	$argon2i$v=19$m=4096,t=3,p=1$<salt base64>$<hash base64>
//
// The secret and associated data are not part of the string; they must be
// supplied again to VerifyEncodedExt.
//
// The package is used by cmd/argon2-native to build the shared library and
// by the test collaborators of both transports. It keeps no mutable global
// state, so concurrent calls are safe.
package kdf
