package database

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Binary face template codec used by export/import. The database itself
// stores templates as pgvector columns; this portable form exists so
// templates survive a dump/restore across deployments.
//
// Layout: 4-byte magic, 1-byte version, uint32 dimension, then dimension
// big-endian float32 values.

const templateVersion = 1

var templateMagic = [4]byte{'F', 'T', 'P', 'L'}

var (
	ErrTemplateMagic     = errors.New("not a face template")
	ErrTemplateVersion   = errors.New("unsupported face template version")
	ErrTemplateTruncated = errors.New("truncated face template")
)

// EncodeTemplate serializes a face template into its portable binary form.
func EncodeTemplate(template []float32) []byte {
	buf := make([]byte, 0, 9+4*len(template))
	buf = append(buf, templateMagic[:]...)
	buf = append(buf, templateVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(template)))
	for _, v := range template {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// DecodeTemplate parses the portable binary form back into a template.
func DecodeTemplate(data []byte) ([]float32, error) {
	if len(data) < 9 {
		return nil, ErrTemplateTruncated
	}
	if [4]byte(data[:4]) != templateMagic {
		return nil, ErrTemplateMagic
	}
	if data[4] != templateVersion {
		return nil, fmt.Errorf("%w: %d", ErrTemplateVersion, data[4])
	}

	dim := binary.BigEndian.Uint32(data[5:9])
	payload := data[9:]
	// Compare in int64 so a huge declared dimension cannot wrap around the
	// multiplication and slip past the length check.
	if int64(len(payload)) != int64(dim)*4 {
		return nil, ErrTemplateTruncated
	}

	template := make([]float32, dim)
	for i := range template {
		bits := binary.BigEndian.Uint32(payload[i*4:])
		template[i] = math.Float32frombits(bits)
	}
	return template, nil
}
