package codec

import (
	"encoding/binary"

	"main/internal/schema"
)

const QuotePayloadSize = 40

// EncodeQuote serializes a quote intent into a fixed-size payload.
func EncodeQuote(dst []byte, q schema.QuoteIntent) []byte {
	if cap(dst) < QuotePayloadSize {
		dst = make([]byte, QuotePayloadSize)
	} else {
		dst = dst[:QuotePayloadSize]
	}

	binary.LittleEndian.PutUint64(dst[0:8], uint64(q.BidLimit))
	binary.LittleEndian.PutUint64(dst[8:16], uint64(q.AskLimit))
	binary.LittleEndian.PutUint64(dst[16:24], uint64(q.BidSize))
	binary.LittleEndian.PutUint64(dst[24:32], uint64(q.AskSize))
	var active uint64
	if q.Active {
		active = 1
	}
	binary.LittleEndian.PutUint64(dst[32:40], active)

	return dst
}

// DecodeQuote parses a fixed-size quote intent payload.
func DecodeQuote(src []byte) (schema.QuoteIntent, bool) {
	if len(src) < QuotePayloadSize {
		return schema.QuoteIntent{}, false
	}
	return schema.QuoteIntent{
		BidLimit: schema.Price(int64(binary.LittleEndian.Uint64(src[0:8]))),
		AskLimit: schema.Price(int64(binary.LittleEndian.Uint64(src[8:16]))),
		BidSize:  schema.Quantity(int64(binary.LittleEndian.Uint64(src[16:24]))),
		AskSize:  schema.Quantity(int64(binary.LittleEndian.Uint64(src[24:32]))),
		Active:   binary.LittleEndian.Uint64(src[32:40]) != 0,
	}, true
}
