// Package schema defines the request shapes exchanged with the Argon2
// module: hash parameters, verify parameters and the extended verify
// parameters used when a hash is bound to a secret or associated data.
//
// Every optional field uses its zero value to mean "not sent"; the native
// module then applies its own default. The bridge owns no algorithmic
// defaults.
//
//	Field        Zero value            Native default
//	─────────────────────────────────────────────────
//	Salt         rejected              none
//	Secret       not sent              empty
//	Data         not sent              empty
//	Version      not sent              0x13
//	Variant      not sent              argon2i
//	MemoryCost   not sent              4096 KiB
//	TimeCost     not sent              3
//	Lanes        not sent              1
//	ThreadMode   Sequential, not sent  Sequential
//	HashLength   not sent              32
//
// The only bridge-side rule is the minimum salt length (MinSaltSize) and
// membership of the enumerations; range checks on costs are left to the
// module.
package schema
