package header

import (
	"bytes"
	"errors"
	"testing"
)

func sampleISHeader() ISHeader {
	return ISHeader{
		Version:     FormatVersion,
		Topology:    TopologySquare,
		Flags:       FlagMapLZ4,
		MapSize:     12,
		MaxPlayer:   6,
		Cits:        9,
		LenMap:      0x01020304,
		LenCitPos:   18,
		LenCitNames: 0x0506,
		LenPlayers:  40,
		LenRules:    77,
	}
}

func TestISHeaderRoundTrip(t *testing.T) {
	in := sampleISHeader()
	b, err := in.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if len(b) != ISHeaderSize {
		t.Fatalf("expected %d bytes, got %d", ISHeaderSize, len(b))
	}
	var out ISHeader
	if err := out.UnmarshalBinary(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
}

func TestISHeaderIsBigEndian(t *testing.T) {
	b, _ := sampleISHeader().MarshalBinary()
	if !bytes.Equal(b[10:14], []byte{1, 2, 3, 4}) {
		t.Fatalf("len_map not big-endian: %x", b[10:14])
	}
	if !bytes.Equal(b[16:18], []byte{5, 6}) {
		t.Fatalf("len_cit_names not big-endian: %x", b[16:18])
	}
}

func TestFileHeaderRoundTrip(t *testing.T) {
	in := FileHeader{
		ChecksumHeader:         0x0102030405060708,
		ChecksumIS:             42,
		ChecksumFrameData:      ^uint64(0),
		LenFrameDataCompressed: 100,
		LenFrameDataRaw:        250,
	}
	b, _ := in.MarshalBinary()
	if len(b) != FileHeaderSize {
		t.Fatalf("expected %d bytes, got %d", FileHeaderSize, len(b))
	}
	if b[0] != 1 || b[7] != 8 {
		t.Fatalf("checksum_header not big-endian: %x", b[:8])
	}
	var out FileHeader
	if err := out.UnmarshalBinary(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
	if !out.Compressed() {
		t.Fatalf("expected compressed when lengths differ")
	}
}

func TestUnmarshalShortHeader(t *testing.T) {
	var ish ISHeader
	if err := ish.UnmarshalBinary(make([]byte, ISHeaderSize-1)); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
	var fh FileHeader
	if err := fh.UnmarshalBinary(make([]byte, 3)); !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestVersionGate(t *testing.T) {
	extra := FormatVersion
	extra[3]++
	if err := CheckVersion(extra); err != nil {
		t.Fatalf("fourth component must be ignored: %v", err)
	}
	for i := 0; i < 3; i++ {
		v := FormatVersion
		v[i]++
		err := CheckVersion(v)
		if !errors.Is(err, ErrVersionMismatch) {
			t.Fatalf("component %d: expected ErrVersionMismatch, got %v", i, err)
		}
		var ve VersionError
		if !errors.As(err, &ve) || ve.Got != v {
			t.Fatalf("component %d: expected VersionError carrying %s, got %v", i, v, err)
		}
	}
}

func TestValidateRejectsBadFields(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*ISHeader)
		want error
	}{
		{"version", func(h *ISHeader) { h.Version[1]++ }, ErrVersionMismatch},
		{"topology", func(h *ISHeader) { h.Topology = 7 }, ErrInvalidTopology},
		{"map size zero", func(h *ISHeader) { h.MapSize = 0 }, ErrInvalidMapSize},
		{"map size large", func(h *ISHeader) { h.MapSize = MaxMapSize + 1 }, ErrInvalidMapSize},
		{"players", func(h *ISHeader) { h.MaxPlayer = 16 }, ErrInvalidPlayers},
	}
	for _, tc := range cases {
		h := sampleISHeader()
		tc.mut(&h)
		if err := h.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if err := sampleISHeader().Validate(); err != nil {
		t.Fatalf("sample header invalid: %v", err)
	}
}

func TestSectionsDerivedFromLengths(t *testing.T) {
	h := ISHeader{LenMap: 10, LenCitPos: 4, LenCitNames: 7, LenPlayers: 3, LenRules: 5}
	s := h.Sections()
	want := Sections{Map: 0, CitPos: 10, CitNames: 14, Players: 21, Rules: 24, End: 29}
	if s != want {
		t.Fatalf("sections mismatch: got=%+v want=%+v", s, want)
	}
	if h.SectionsLen() != 29 {
		t.Fatalf("expected sections len 29, got %d", h.SectionsLen())
	}
}

func TestSealExcludesOwnChecksumField(t *testing.T) {
	fh := FileHeader{ChecksumIS: 1, ChecksumFrameData: 2, LenFrameDataCompressed: 3, LenFrameDataRaw: 3}
	packed := Seal(&fh, sampleISHeader())
	if len(packed) != FileHeaderSize+ISHeaderSize {
		t.Fatalf("unexpected packed size %d", len(packed))
	}
	if Checksum(packed) != fh.ChecksumHeader {
		t.Fatalf("stored checksum does not match recomputed checksum")
	}

	flipped := append([]byte(nil), packed...)
	flipped[3] ^= 0xFF
	if Checksum(flipped) != fh.ChecksumHeader {
		t.Fatalf("checksum must not cover its own field")
	}

	for _, off := range []int{8, 30, FileHeaderSize + 5, len(packed) - 1} {
		flipped := append([]byte(nil), packed...)
		flipped[off] ^= 0x01
		if Checksum(flipped) == fh.ChecksumHeader {
			t.Fatalf("flip at offset %d not detected", off)
		}
	}
}
