package database

import (
	"errors"
	"testing"
)

func TestTemplateCodec(t *testing.T) {
	template := make([]float32, 128)
	for i := range template {
		template[i] = float32(i) * 0.01
	}

	encoded := EncodeTemplate(template)
	decoded, err := DecodeTemplate(encoded)
	if err != nil {
		t.Fatalf("DecodeTemplate failed: %v", err)
	}
	if len(decoded) != len(template) {
		t.Fatalf("decoded dim = %d, want %d", len(decoded), len(template))
	}
	for i := range template {
		if decoded[i] != template[i] {
			t.Fatalf("value %d = %f, want %f", i, decoded[i], template[i])
		}
	}
}

func TestDecodeTemplate_Errors(t *testing.T) {
	valid := EncodeTemplate([]float32{1, 2, 3})

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "XXXX")

	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 99

	// Header declaring a dimension whose byte length overflows uint32, with
	// no payload at all.
	overflowDim := append([]byte(nil), valid[:5]...)
	overflowDim = append(overflowDim, 0x40, 0x00, 0x00, 0x00) // dim = 1<<30

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrTemplateTruncated},
		{"short header", valid[:6], ErrTemplateTruncated},
		{"wrong magic", badMagic, ErrTemplateMagic},
		{"future version", badVersion, ErrTemplateVersion},
		{"truncated payload", valid[:len(valid)-2], ErrTemplateTruncated},
		{"overflowing dimension", overflowDim, ErrTemplateTruncated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTemplate(tc.data)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("DecodeTemplate() error = %v; want %v", err, tc.wantErr)
			}
		})
	}
}

func TestEncodeTemplate_Empty(t *testing.T) {
	decoded, err := DecodeTemplate(EncodeTemplate(nil))
	if err != nil {
		t.Fatalf("DecodeTemplate failed: %v", err)
	}
	if len(decoded) != 0 {
		t.Errorf("decoded dim = %d, want 0", len(decoded))
	}
}
