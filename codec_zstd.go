package pixeltobin

import (
	"github.com/klauspost/compress/zstd"
)

// ZstdCodec is encoder version 2: the version-1 payload compressed with
// zstd. The encoder runs single-threaded at a fixed level so that equal
// input always compresses to identical bytes.
type ZstdCodec struct {
	raw RawCodec
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// maxInnerPayload caps decompression so a crafted artifact cannot claim
// an arbitrarily large decompressed size.
const maxInnerPayload = 1 << 30

func NewZstdCodec() *ZstdCodec {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("pixeltobin: zstd encoder init: " + err.Error())
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxInnerPayload))
	if err != nil {
		panic("pixeltobin: zstd decoder init: " + err.Error())
	}
	return &ZstdCodec{enc: enc, dec: dec}
}

func (c *ZstdCodec) Version() uint16 { return 2 }

func (c *ZstdCodec) Encode(cfg *SampleConfig, seq *Sequence) ([]byte, error) {
	inner, err := c.raw.Encode(cfg, seq)
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(inner, nil), nil
}

func (c *ZstdCodec) Decode(hdr Header, payload []byte) (*Sequence, error) {
	inner, err := c.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, wrap("decode.zstd", KindDecode, "", err)
	}
	return c.raw.Decode(hdr, inner)
}
