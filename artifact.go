package pixeltobin

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"hash/crc64"
	"io"
)

// Artifact wire layout, all integers little-endian:
//
//	header:  domainTag u8, encoderVersion u16, width u32, height u32, payloadLength u32
//	payload: payloadLength bytes, owned by the codec for encoderVersion
//	trailer: frameCount u32, crc64(header+payload) u64, end marker u32
//
// Decoding an artifact never requires anything beyond these bytes.
const (
	HeaderSize  = 15
	TrailerSize = 16

	endMarker = 0xDEADBEEF
)

var crcTable = crc64.MakeTable(crc64.ECMA)

// Header is the fixed artifact header.
type Header struct {
	Domain  Domain
	Version uint16
	Width   uint32
	Height  uint32

	PayloadLen uint32
}

func (h Header) marshal() []byte {
	buf := make([]byte, HeaderSize)
	buf[0] = h.Domain.Tag()
	binary.LittleEndian.PutUint16(buf[1:3], h.Version)
	binary.LittleEndian.PutUint32(buf[3:7], h.Width)
	binary.LittleEndian.PutUint32(buf[7:11], h.Height)
	binary.LittleEndian.PutUint32(buf[11:15], h.PayloadLen)
	return buf
}

// Artifact is the encoded output for one sample.
type Artifact struct {
	Header     Header
	Payload    []byte
	FrameCount uint32
}

// WriteTo writes the artifact to a writer.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	wr := bufio.NewWriter(w)

	hdr := a.Header.marshal()
	var total int64

	n, err := wr.Write(hdr)
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = wr.Write(a.Payload)
	total += int64(n)
	if err != nil {
		return total, err
	}

	crc := crc64.New(crcTable)
	crc.Write(hdr)
	crc.Write(a.Payload)

	binary.Write(wr, binary.LittleEndian, a.FrameCount)
	binary.Write(wr, binary.LittleEndian, crc.Sum64())
	binary.Write(wr, binary.LittleEndian, uint32(endMarker))
	total += TrailerSize

	return total, wr.Flush()
}

// Bytes serializes the artifact.
func (a *Artifact) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(a.Payload) + TrailerSize)
	a.WriteTo(&buf)
	return buf.Bytes()
}

// Size returns the serialized size in bytes.
func (a *Artifact) Size() int {
	return HeaderSize + len(a.Payload) + TrailerSize
}

// UnmarshalArtifact parses and integrity-checks a serialized artifact.
func UnmarshalArtifact(data []byte) (*Artifact, error) {
	const op = "artifact.unmarshal"

	if len(data) < HeaderSize+TrailerSize {
		return nil, errf(op, KindDecode, "artifact truncated: %d bytes", len(data))
	}

	domain, err := DomainFromTag(data[0])
	if err != nil {
		return nil, wrap(op, KindDecode, "", err)
	}

	hdr := Header{
		Domain:     domain,
		Version:    binary.LittleEndian.Uint16(data[1:3]),
		Width:      binary.LittleEndian.Uint32(data[3:7]),
		Height:     binary.LittleEndian.Uint32(data[7:11]),
		PayloadLen: binary.LittleEndian.Uint32(data[11:15]),
	}

	if hdr.Width == 0 || hdr.Height == 0 {
		return nil, errf(op, KindDecode, "header declares zero dimension %dx%d", hdr.Width, hdr.Height)
	}

	want := HeaderSize + int(hdr.PayloadLen) + TrailerSize
	if len(data) != want {
		return nil, errf(op, KindDecode, "artifact is %d bytes, header declares %d", len(data), want)
	}

	payload := data[HeaderSize : HeaderSize+int(hdr.PayloadLen)]
	trailer := data[HeaderSize+int(hdr.PayloadLen):]

	if marker := binary.LittleEndian.Uint32(trailer[12:16]); marker != endMarker {
		return nil, errf(op, KindDecode, "bad end marker %#x", marker)
	}

	sum := binary.LittleEndian.Uint64(trailer[4:12])
	if got := crc64.Checksum(data[:HeaderSize+int(hdr.PayloadLen)], crcTable); got != sum {
		return nil, errf(op, KindDecode, "checksum mismatch: artifact is corrupt")
	}

	return &Artifact{
		Header:     hdr,
		Payload:    payload,
		FrameCount: binary.LittleEndian.Uint32(trailer[0:4]),
	}, nil
}

// ReadArtifact reads a full artifact from r.
func ReadArtifact(r io.Reader) (*Artifact, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrap("artifact.read", KindDecode, "", err)
	}
	return UnmarshalArtifact(data)
}
