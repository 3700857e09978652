package codec

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	bridgeerrors "github.com/wippyai/argon2-bridge/errors"
	"github.com/wippyai/argon2-bridge/schema"
)

func allBytes() schema.Bytes {
	b := make(schema.Bytes, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestEncode_HashParams(t *testing.T) {
	buf, err := Encode(schema.HashParams{
		Password: "12345",
		Options: schema.HashOptions{
			Salt:       schema.Bytes{0, 1, 2, 255},
			Version:    schema.Version13,
			Variant:    schema.Argon2id,
			MemoryCost: 64,
			ThreadMode: schema.Parallel,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"password":"12345","options":{"salt":[0,1,2,255],"version":"19","variant":"argon2id","memoryCost":64,"threadMode":1}}` + "\x00"
	if string(buf) != want {
		t.Errorf("Encode =\n%q\nwant\n%q", buf, want)
	}
}

func TestEncode_AlwaysTerminated(t *testing.T) {
	tests := []any{
		nil,
		"",
		0,
		schema.VerifyParams{},
		map[string]int{},
	}
	for _, v := range tests {
		buf, err := Encode(v)
		if err != nil {
			t.Fatalf("Encode(%#v): %v", v, err)
		}
		if len(buf) == 0 || buf[len(buf)-1] != Terminator {
			t.Errorf("Encode(%#v) = %q, not terminated", v, buf)
		}
		if bytes.IndexByte(buf[:len(buf)-1], 0) >= 0 {
			t.Errorf("Encode(%#v) has an embedded NUL", v)
		}
	}
}

func TestEncode_EmbeddedNULInText(t *testing.T) {
	buf, err := Encode(schema.VerifyParams{Password: "a\x00b", Hash: "h"})
	if err != nil {
		t.Fatal(err)
	}
	if i := bytes.IndexByte(buf, 0); i != len(buf)-1 {
		t.Fatalf("raw NUL at %d in %q", i, buf)
	}
	var out schema.VerifyParams
	if err := Decode(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.Password != "a\x00b" {
		t.Errorf("password = %q", out.Password)
	}
}

func TestByteFidelity(t *testing.T) {
	in := schema.VerifyParamsExt{
		VerifyParams: schema.VerifyParams{Password: "pw", Hash: "h"},
		Secret:       allBytes(),
		Data:         schema.Bytes{0, 0, 0},
	}
	buf, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	var out schema.VerifyParamsExt
	if err := Decode(buf, &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Secret, in.Secret) {
		t.Errorf("secret changed: %v", out.Secret)
	}
	if !bytes.Equal(out.Data, in.Data) {
		t.Errorf("data changed: %v", out.Data)
	}
}

func TestEncode_PlainByteSlicesAndArrays(t *testing.T) {
	type req struct {
		A []byte  `json:"a"`
		B [3]byte `json:"b"`
		C []byte  `json:"c,omitempty"`
	}
	buf, err := Encode(req{A: []byte{0, 200}, B: [3]byte{7, 0, 9}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":[0,200],"b":[7,0,9]}` + "\x00"
	if string(buf) != want {
		t.Errorf("got %q, want %q", buf, want)
	}
}

func TestEncode_StructTagsAndMaps(t *testing.T) {
	type inner struct {
		Keep   string `json:"keep"`
		Skip   string `json:"-"`
		hidden string
		Plain  int
	}
	buf, err := Encode(map[string]any{
		"z": inner{Keep: "k", Skip: "s", hidden: "h", Plain: 3},
		"a": []string{"x", "y"},
		"m": (*inner)(nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":["x","y"],"m":null,"z":{"keep":"k","Plain":3}}` + "\x00"
	if string(buf) != want {
		t.Errorf("got %q, want %q", buf, want)
	}
}

func TestEncode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   any
		path string
	}{
		{"channel", struct {
			C chan int `json:"c"`
		}{C: make(chan int)}, "c"},
		{"func", map[string]any{"f": func() {}}, "f"},
		{"complex", []any{complex(1, 2)}, "0"},
		{"nan", struct {
			F float64 `json:"f"`
		}{F: math.NaN()}, "f"},
		{"inf", math.Inf(1), ""},
		{"invalid utf8", schema.VerifyParams{Password: "\xff\xfe", Hash: "h"}, "password"},
		{"int map key", map[int]string{1: "a"}, ""},
		{"bad version", schema.HashOptions{Salt: schema.Bytes("saltsalt"), Version: 3}, "version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.in)
			if !errors.Is(err, bridgeerrors.ErrEncoding) {
				t.Fatalf("expected ErrEncoding, got %v", err)
			}
			var be *bridgeerrors.Error
			if !errors.As(err, &be) {
				t.Fatalf("expected *errors.Error, got %T", err)
			}
			if got := strings.Join(be.Path, "."); got != tt.path {
				t.Errorf("path = %q, want %q", got, tt.path)
			}
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	var v schema.VerifyParams
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"no terminator", []byte(`{"password":"x"}`)},
		{"embedded nul", []byte("{\"password\":\"x\"}\x00\x00")},
		{"bad json", []byte("{\x00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Decode(tt.buf, &v); !errors.Is(err, bridgeerrors.ErrEncoding) {
				t.Errorf("expected ErrEncoding, got %v", err)
			}
		})
	}
}

func FuzzByteFidelity(f *testing.F) {
	f.Add([]byte{0}, "pw")
	f.Add([]byte{0xff, 0x00, 0x7f}, "")
	f.Add([]byte(allBytes()), "12345")
	f.Fuzz(func(t *testing.T, secret []byte, password string) {
		in := schema.VerifyParamsExt{
			VerifyParams: schema.VerifyParams{Password: password, Hash: "h"},
			Secret:       schema.Bytes(secret),
		}
		buf, err := Encode(in)
		if err != nil {
			if errors.Is(err, bridgeerrors.ErrEncoding) {
				return
			}
			t.Fatal(err)
		}
		var out schema.VerifyParamsExt
		if err := Decode(buf, &out); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out.Secret, in.Secret) {
			t.Fatalf("secret %v decoded as %v", in.Secret, out.Secret)
		}
		if out.VerifyParams.Password != password {
			t.Fatalf("password %q decoded as %q", password, out.VerifyParams.Password)
		}
	})
}
