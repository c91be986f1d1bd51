package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const TopOfBookPayloadSize = 32

// EncodeTopOfBook serializes a snapshot into a fixed-size payload.
func EncodeTopOfBook(dst []byte, tob schema.TopOfBook) []byte {
	if cap(dst) < TopOfBookPayloadSize {
		dst = make([]byte, TopOfBookPayloadSize)
	} else {
		dst = dst[:TopOfBookPayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], uint64(tob.BidPrice))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(tob.BidQty))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(tob.AskPrice))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(tob.AskQty))

	return dst
}

// DecodeTopOfBook parses a fixed-size snapshot payload.
func DecodeTopOfBook(src []byte) (schema.TopOfBook, bool) {
	if len(src) < TopOfBookPayloadSize {
		return schema.TopOfBook{}, false
	}
	return schema.TopOfBook{
		BidPrice: schema.Price(int64(binary.LittleEndian.Uint64(src[0:8]))),
		BidQty:   schema.Quantity(int64(binary.LittleEndian.Uint64(src[8:16]))),
		AskPrice: schema.Price(int64(binary.LittleEndian.Uint64(src[16:24]))),
		AskQty:   schema.Quantity(int64(binary.LittleEndian.Uint64(src[24:32]))),
	}, true
}
