package pixeltobin

import (
	"bytes"
	"encoding/binary"
	"image/color"
)

// Codec is a versioned, invertible transform between a sequence and an
// artifact payload. Implementations must be deterministic: identical
// input always yields byte-identical output.
type Codec interface {
	Version() uint16
	Encode(cfg *SampleConfig, seq *Sequence) ([]byte, error)
	Decode(hdr Header, payload []byte) (*Sequence, error)
}

// Registry maps encoder versions to codecs. It is passed around
// explicitly so codec versions can be exercised side by side.
type Registry struct {
	codecs map[uint16]Codec
}

func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[uint16]Codec, len(codecs))}
	for _, c := range codecs {
		r.codecs[c.Version()] = c
	}
	return r
}

// DefaultRegistry holds every codec this package ships: v1 (raw) and
// v2 (zstd-compressed).
func DefaultRegistry() *Registry {
	return NewRegistry(RawCodec{}, NewZstdCodec())
}

func (r *Registry) Codec(version uint16) (Codec, bool) {
	c, ok := r.codecs[version]
	return c, ok
}

// Encode transforms a sample's sequence into an artifact using the codec
// named by cfg.EncoderVersion.
func Encode(reg *Registry, cfg *SampleConfig, seq *Sequence) (*Artifact, error) {
	const op = "encode"

	codec, ok := reg.Codec(cfg.EncoderVersion)
	if !ok {
		return nil, errf(op, KindEncode, "no codec registered for encoder version %d", cfg.EncoderVersion)
	}

	if seq.Frames() == 0 {
		return nil, errf(op, KindEncode, "sequence has no frames")
	}
	if cfg.Domain.Text() != (len(seq.Text) > 0) {
		return nil, errf(op, KindEncode, "sequence frame kind does not match domain %s", cfg.Domain)
	}
	for _, g := range seq.Pixel {
		if g.Width != cfg.Width || g.Height != cfg.Height {
			return nil, errf(op, KindEncode, "frame is %dx%d, config declares %dx%d",
				g.Width, g.Height, cfg.Width, cfg.Height)
		}
	}
	for _, f := range seq.Text {
		if f.Grid.Width != cfg.Width || f.Grid.Height != cfg.Height {
			return nil, errf(op, KindEncode, "frame is %dx%d, config declares %dx%d",
				f.Grid.Width, f.Grid.Height, cfg.Width, cfg.Height)
		}
	}

	payload, err := codec.Encode(cfg, seq)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		Header: Header{
			Domain:     cfg.Domain,
			Version:    cfg.EncoderVersion,
			Width:      uint32(cfg.Width),
			Height:     uint32(cfg.Height),
			PayloadLen: uint32(len(payload)),
		},
		Payload:    payload,
		FrameCount: uint32(seq.Frames()),
	}, nil
}

// RawCodec is encoder version 1: uncompressed frame data.
//
// Payload layout (little-endian):
//
//	frameCount u32, fps u32, format u8
//	pixel domains: format is the color depth.
//	  depth 8: frames of width*height RGB triplets
//	  depth 1: frames of bit-packed rows, MSB first, rows padded to a byte
//	text domains: format is 0, then the symbol table (count u16, then
//	  len u8 + UTF-8 bytes per symbol), then per frame duration u32,
//	  action u8 and width*height symbol indices u16.
type RawCodec struct{}

func (RawCodec) Version() uint16 { return 1 }

func (RawCodec) Encode(cfg *SampleConfig, seq *Sequence) ([]byte, error) {
	const op = "encode.raw"

	var buf bytes.Buffer
	writeUint32(&buf, uint32(seq.Frames()))
	writeUint32(&buf, uint32(seq.FPS))

	if cfg.Domain.Text() {
		buf.WriteByte(0)
		if err := encodeTextFrames(&buf, cfg, seq.Text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	buf.WriteByte(byte(cfg.ColorDepth))
	switch cfg.ColorDepth {
	case 8:
		for _, g := range seq.Pixel {
			for _, p := range g.Pix {
				buf.Write([]byte{p.R, p.G, p.B})
			}
		}
	case 1:
		for _, g := range seq.Pixel {
			if err := writePackedFrame(&buf, g); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errf(op, KindEncode, "unsupported color depth %d", cfg.ColorDepth)
	}
	return buf.Bytes(), nil
}

func encodeTextFrames(buf *bytes.Buffer, cfg *SampleConfig, frames []TextFrame) error {
	const op = "encode.raw"

	writeUint16(buf, uint16(len(cfg.SymbolSet)))
	for _, sym := range cfg.SymbolSet {
		buf.WriteByte(byte(len(sym)))
		buf.WriteString(sym)
	}

	for _, f := range frames {
		writeUint32(buf, uint32(f.Duration))
		buf.WriteByte(byte(f.Action))
		for _, cell := range f.Grid.Cells {
			if int(cell) >= len(cfg.SymbolSet) {
				return errf(op, KindEncode, "symbol index %d outside symbol set of %d", cell, len(cfg.SymbolSet))
			}
			writeUint16(buf, cell)
		}
	}
	return nil
}

// writePackedFrame packs a monochrome frame one bit per pixel, white = 1.
func writePackedFrame(buf *bytes.Buffer, g *PixelGrid) error {
	const op = "encode.raw"

	row := make([]byte, (g.Width+7)/8)
	for y := 0; y < g.Height; y++ {
		for i := range row {
			row[i] = 0
		}
		for x := 0; x < g.Width; x++ {
			switch g.At(x, y) {
			case color.RGBA{R: 255, G: 255, B: 255, A: 255}:
				row[x/8] |= 1 << (7 - uint(x%8))
			case color.RGBA{A: 255}:
			default:
				return errf(op, KindEncode, "pixel (%d,%d) is not monochrome under color depth 1", x, y)
			}
		}
		buf.Write(row)
	}
	return nil
}

func (RawCodec) Decode(hdr Header, payload []byte) (*Sequence, error) {
	r := &payloadReader{op: "decode.raw", data: payload}

	frames := r.uint32()
	fps := r.uint32()
	format := r.byte()
	if r.err != nil {
		return nil, r.err
	}
	if frames == 0 {
		return nil, errf(r.op, KindDecode, "payload declares zero frames")
	}

	seq := &Sequence{FPS: int(fps)}
	width, height := int(hdr.Width), int(hdr.Height)
	cells := uint64(hdr.Width) * uint64(hdr.Height)

	if hdr.Domain.Text() {
		if format != 0 {
			return nil, errf(r.op, KindDecode, "unexpected format byte %d for text domain", format)
		}
		if err := decodeTextFrames(r, seq, width, height, int(frames)); err != nil {
			return nil, err
		}
	} else {
		switch format {
		case 8:
			if cells > uint64(r.remaining())/3 {
				return nil, errf(r.op, KindDecode,
					"header dimensions %dx%d exceed the %d-byte payload", width, height, r.remaining())
			}
			if err := r.expectFrames(frames, cells*3); err != nil {
				return nil, err
			}
			for i := 0; i < int(frames); i++ {
				g := NewPixelGrid(width, height)
				raw := r.take(width * height * 3)
				if r.err != nil {
					return nil, r.err
				}
				for j := range g.Pix {
					g.Pix[j] = color.RGBA{R: raw[j*3], G: raw[j*3+1], B: raw[j*3+2], A: 255}
				}
				seq.Pixel = append(seq.Pixel, g)
			}
		case 1:
			if err := r.expectFrames(frames, uint64((width+7)/8)*uint64(height)); err != nil {
				return nil, err
			}
			for i := 0; i < int(frames); i++ {
				g, err := readPackedFrame(r, width, height)
				if err != nil {
					return nil, err
				}
				seq.Pixel = append(seq.Pixel, g)
			}
		default:
			return nil, errf(r.op, KindDecode, "unsupported color depth %d in payload", format)
		}
	}

	if r.remaining() != 0 {
		return nil, errf(r.op, KindDecode, "%d trailing bytes after last frame", r.remaining())
	}
	return seq, nil
}

func decodeTextFrames(r *payloadReader, seq *Sequence, width, height, frames int) error {
	symCount := int(r.uint16())
	symbols := make([]string, 0, symCount)
	for i := 0; i < symCount; i++ {
		n := int(r.byte())
		symbols = append(symbols, string(r.take(n)))
	}
	if r.err != nil {
		return r.err
	}
	if symCount == 0 {
		return errf(r.op, KindDecode, "payload declares an empty symbol set")
	}

	cells := uint64(width) * uint64(height)
	if cells > uint64(r.remaining())/2 {
		return errf(r.op, KindDecode,
			"header dimensions %dx%d exceed the %d-byte payload", width, height, r.remaining())
	}
	if err := r.expectFrames(uint32(frames), 5+cells*2); err != nil {
		return err
	}

	for i := 0; i < frames; i++ {
		f := TextFrame{
			Grid:     NewTextGrid(width, height),
			Duration: int(r.uint32()),
			Action:   Action(r.byte()),
		}
		for j := range f.Grid.Cells {
			cell := r.uint16()
			if int(cell) >= symCount {
				return errf(r.op, KindDecode, "symbol index %d outside symbol set of %d", cell, symCount)
			}
			f.Grid.Cells[j] = cell
		}
		if r.err != nil {
			return r.err
		}
		seq.Text = append(seq.Text, f)
	}
	return nil
}

func readPackedFrame(r *payloadReader, width, height int) (*PixelGrid, error) {
	g := NewPixelGrid(width, height)
	stride := (width + 7) / 8
	for y := 0; y < height; y++ {
		row := r.take(stride)
		if r.err != nil {
			return nil, r.err
		}
		for x := 0; x < width; x++ {
			if row[x/8]&(1<<(7-uint(x%8))) != 0 {
				g.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				g.Set(x, y, color.RGBA{A: 255})
			}
		}
	}
	return g, nil
}

// payloadReader cursors over a payload, collapsing short reads into a
// single decode error.
type payloadReader struct {
	op   string
	data []byte
	off  int
	err  error
}

func (r *payloadReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.err = errf(r.op, KindDecode, "payload truncated at byte %d", r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *payloadReader) byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *payloadReader) uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *payloadReader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *payloadReader) remaining() int { return len(r.data) - r.off }

// expectFrames verifies that exactly n frames of frameBytes each remain.
// Frame sizes derive from the artifact header, so the check divides
// instead of multiplying to keep oversized dimensions from overflowing;
// it must run before any grid is allocated from those dimensions.
func (r *payloadReader) expectFrames(n uint32, frameBytes uint64) error {
	if r.err != nil {
		return r.err
	}
	left := uint64(r.remaining())
	if frameBytes == 0 || left%frameBytes != 0 || left/frameBytes != uint64(n) {
		r.err = errf(r.op, KindDecode,
			"payload holds %d bytes of frame data, header implies %d frames of %d bytes",
			left, n, frameBytes)
	}
	return r.err
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
