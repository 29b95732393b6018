package pixeltobin

// Decode reconstructs a sequence from a serialized artifact. Only the
// artifact bytes are consulted: the header names the domain, dimensions
// and codec version, the payload carries everything else.
func Decode(reg *Registry, data []byte) (Header, *Sequence, error) {
	art, err := UnmarshalArtifact(data)
	if err != nil {
		return Header{}, nil, err
	}
	seq, err := DecodeArtifact(reg, art)
	if err != nil {
		return Header{}, nil, err
	}
	return art.Header, seq, nil
}

// DecodeArtifact decodes an already-parsed artifact.
func DecodeArtifact(reg *Registry, art *Artifact) (*Sequence, error) {
	const op = "decode"

	codec, ok := reg.Codec(art.Header.Version)
	if !ok {
		return nil, errf(op, KindDecode, "no codec registered for encoder version %d", art.Header.Version)
	}

	seq, err := codec.Decode(art.Header, art.Payload)
	if err != nil {
		return nil, err
	}

	if uint32(seq.Frames()) != art.FrameCount {
		return nil, errf(op, KindDecode, "payload holds %d frames, trailer declares %d",
			seq.Frames(), art.FrameCount)
	}
	return seq, nil
}
