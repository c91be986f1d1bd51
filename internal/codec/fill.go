package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const FillPayloadSize = 24

// EncodeFill serializes a fill into a fixed-size payload.
func EncodeFill(dst []byte, f schema.Fill) []byte {
	if cap(dst) < FillPayloadSize {
		dst = make([]byte, FillPayloadSize)
	} else {
		dst = dst[:FillPayloadSize]
	}

	binary.LittleEndian.PutUint16(dst[0:2], uint16(f.Side))
	var adverse uint16
	if f.Adverse {
		adverse = 1
	}
	binary.LittleEndian.PutUint16(dst[2:4], adverse)
	binary.LittleEndian.PutUint32(dst[4:8], 0)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(f.Price))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(f.Qty))

	return dst
}

// DecodeFill parses a fixed-size fill payload.
func DecodeFill(src []byte) (schema.Fill, bool) {
	if len(src) < FillPayloadSize {
		return schema.Fill{}, false
	}
	return schema.Fill{
		Side:    schema.Side(binary.LittleEndian.Uint16(src[0:2])),
		Adverse: binary.LittleEndian.Uint16(src[2:4]) != 0,
		Price:   schema.Price(int64(binary.LittleEndian.Uint64(src[8:16]))),
		Qty:     schema.Quantity(int64(binary.LittleEndian.Uint64(src[16:24]))),
	}, true
}
