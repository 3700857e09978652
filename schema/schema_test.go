package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	bridgeerrors "github.com/wippyai/argon2-bridge/errors"
)

func allBytes() Bytes {
	b := make(Bytes, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestBytes_JSONIsIntegerArray(t *testing.T) {
	data, err := json.Marshal(Bytes{0, 1, 255})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[0,1,255]" {
		t.Errorf("Marshal = %s, want [0,1,255]", data)
	}

	data, err = json.Marshal(Bytes(nil))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal(nil) = %s, want []", data)
	}
}

func TestBytes_RoundTripAllValues(t *testing.T) {
	in := allBytes()
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Bytes
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(in, out) {
		t.Errorf("round trip mismatch: got %v", out)
	}
}

func TestBytes_UnmarshalRejects(t *testing.T) {
	tests := []string{`[256]`, `[-1]`, `"AAEC"`, `[1.5]`, `{}`}
	for _, in := range tests {
		var b Bytes
		if err := json.Unmarshal([]byte(in), &b); err == nil {
			t.Errorf("Unmarshal(%s) should fail, got %v", in, b)
		}
	}
}

func TestBytes_UnmarshalNull(t *testing.T) {
	b := Bytes{1}
	if err := json.Unmarshal([]byte("null"), &b); err != nil {
		t.Fatal(err)
	}
	if b != nil {
		t.Errorf("expected nil, got %v", b)
	}
}

func TestVersion_Text(t *testing.T) {
	text, err := Version13.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "19" {
		t.Errorf("Version13 = %q, want 19", text)
	}
	text, _ = Version10.MarshalText()
	if string(text) != "16" {
		t.Errorf("Version10 = %q, want 16", text)
	}

	var v Version
	if err := v.UnmarshalText([]byte("16")); err != nil || v != Version10 {
		t.Errorf("UnmarshalText(16) = %v, %v", v, err)
	}
	if err := v.UnmarshalText([]byte("17")); err == nil {
		t.Error("UnmarshalText(17) should fail")
	}
	if _, err := Version(0x11).MarshalText(); err == nil {
		t.Error("MarshalText of unsupported version should fail")
	}
}

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in      string
		want    Variant
		wantErr bool
	}{
		{"argon2i", Argon2i, false},
		{"argon2d", Argon2d, false},
		{"Argon2id", Argon2id, false},
		{"argon2x", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseVariant(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestHashOptions_Validate(t *testing.T) {
	salt := Bytes("saltsalt")
	tests := []struct {
		name    string
		opts    HashOptions
		wantErr bool
	}{
		{"minimal", HashOptions{Salt: salt}, false},
		{"full", HashOptions{Salt: salt, Version: Version10, Variant: Argon2d, ThreadMode: Parallel, MemoryCost: 64}, false},
		{"short salt", HashOptions{Salt: Bytes("1234567")}, true},
		{"nil salt", HashOptions{}, true},
		{"bad version", HashOptions{Salt: salt, Version: 0x12}, true},
		{"bad variant", HashOptions{Salt: salt, Variant: "scrypt"}, true},
		{"bad thread mode", HashOptions{Salt: salt, ThreadMode: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HashParams{Password: "pw", Options: tt.opts}.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, bridgeerrors.ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}

func TestVerifyParams_Validate(t *testing.T) {
	if err := (VerifyParams{Password: "pw"}).Validate(); !errors.Is(err, bridgeerrors.ErrInvalidParams) {
		t.Errorf("empty hash: got %v", err)
	}
	if err := (VerifyParamsExt{VerifyParams: VerifyParams{Password: "pw"}}).Validate(); !errors.Is(err, bridgeerrors.ErrInvalidParams) {
		t.Errorf("ext empty hash: got %v", err)
	}
	if err := (VerifyParams{Password: "", Hash: "$argon2i$..."}).Validate(); err != nil {
		t.Errorf("empty password is allowed: %v", err)
	}
}

func TestWireKeys(t *testing.T) {
	data, err := json.Marshal(VerifyParamsExt{
		VerifyParams: VerifyParams{Password: "p", Hash: "h"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"verifyParams":{"password":"p","hash":"h"},"secret":[]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
