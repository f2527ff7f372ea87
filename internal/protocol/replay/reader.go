package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/blainsmith/seahash"
	"github.com/danmuck/mwproto/internal/protocol/frame"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/initseq"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
)

// Reader holds a parsed replay. Open only checks structure and the version
// gate; the Verify methods check integrity.
type Reader struct {
	fh     header.FileHeader
	packed []byte
	is     *initseq.Reader
	data   []byte
}

const packedLen = header.FileHeaderSize + header.ISHeaderSize

// Open reads a whole replay from the start of rs. Declared lengths are
// checked against the stream size before anything is allocated. A structural
// failure in a header whose checksum does not match also wraps
// ErrHeaderChecksum.
func Open(rs io.ReadSeeker) (*Reader, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	packed := make([]byte, packedLen)
	if _, err := io.ReadFull(rs, packed); err != nil {
		return nil, truncated(err)
	}
	var fh header.FileHeader
	if err := fh.UnmarshalBinary(packed); err != nil {
		return nil, err
	}
	r, err := open(rs, size-packedLen, fh, packed)
	if err != nil {
		if sum := header.Checksum(packed); sum != fh.ChecksumHeader {
			return nil, fmt.Errorf("%w: %w", mismatch(ErrHeaderChecksum, fh.ChecksumHeader, sum), err)
		}
		return nil, err
	}
	return r, nil
}

// open reads the sections and frame data that follow packed. rest is the
// number of stream bytes after packed.
func open(rs io.Reader, rest int64, fh header.FileHeader, packed []byte) (*Reader, error) {
	var ish header.ISHeader
	if err := ish.UnmarshalBinary(packed[header.FileHeaderSize:]); err != nil {
		return nil, err
	}
	if err := ish.Validate(); err != nil {
		return nil, err
	}
	if n := ish.SectionsLen(); n > rest {
		return nil, fmt.Errorf("%w: sequence declares %d bytes, %d remain", ErrTruncated, n, rest)
	}
	rest -= ish.SectionsLen()
	if n := int64(fh.LenFrameDataCompressed); n > rest {
		return nil, fmt.Errorf("%w: frame data declares %d bytes, %d remain", ErrTruncated, n, rest)
	}

	is, err := initseq.Read(io.MultiReader(bytes.NewReader(packed[header.FileHeaderSize:]), rs))
	if err != nil {
		if errors.Is(err, initseq.ErrTruncated) {
			return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
		}
		return nil, err
	}
	data := make([]byte, fh.LenFrameDataCompressed)
	if _, err := io.ReadFull(rs, data); err != nil {
		return nil, truncated(err)
	}
	return &Reader{fh: fh, packed: packed, is: is, data: data}, nil
}

// OpenBytes parses a replay held in memory.
func OpenBytes(b []byte) (*Reader, error) {
	return Open(bytes.NewReader(b))
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

func (r *Reader) Header() header.FileHeader {
	return r.fh
}

func (r *Reader) IS() *initseq.Reader {
	return r.is
}

// FrameData returns the frame bytes as persisted, possibly compressed.
func (r *Reader) FrameData() []byte {
	return r.data
}

func mismatch(sentinel error, stored, computed uint64) error {
	log.Debug().Err(sentinel).
		Str("stored", fmt.Sprintf("%016x", stored)).
		Str("computed", fmt.Sprintf("%016x", computed)).
		Msg("replay checksum failed")
	return fmt.Errorf("%w: stored %016x, computed %016x", sentinel, stored, computed)
}

func (r *Reader) VerifyHeaderChecksum() error {
	if sum := header.Checksum(r.packed); sum != r.fh.ChecksumHeader {
		return mismatch(ErrHeaderChecksum, r.fh.ChecksumHeader, sum)
	}
	return nil
}

func (r *Reader) VerifyISChecksum() error {
	if sum := r.is.Checksum(); sum != r.fh.ChecksumIS {
		return mismatch(ErrISChecksum, r.fh.ChecksumIS, sum)
	}
	return nil
}

func (r *Reader) VerifyFrameDataChecksum() error {
	if sum := seahash.Sum64(r.data); sum != r.fh.ChecksumFrameData {
		return mismatch(ErrFrameDataChecksum, r.fh.ChecksumFrameData, sum)
	}
	return nil
}

// Verify runs all three checks and joins their failures.
func (r *Reader) Verify() error {
	return errors.Join(
		r.VerifyHeaderChecksum(),
		r.VerifyISChecksum(),
		r.VerifyFrameDataChecksum(),
	)
}

// RawFrameData returns the uncompressed frame stream.
func (r *Reader) RawFrameData() ([]byte, error) {
	if !r.fh.Compressed() {
		return r.data, nil
	}
	want := int64(r.fh.LenFrameDataRaw)
	raw, err := io.ReadAll(io.LimitReader(lz4.NewReader(bytes.NewReader(r.data)), want+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompress, err)
	}
	if int64(len(raw)) != want {
		return nil, fmt.Errorf("%w: got %d bytes, header says %d", ErrDecompress, len(raw), r.fh.LenFrameDataRaw)
	}
	return raw, nil
}

// Frames returns a reader over the frame stream.
func (r *Reader) Frames() (*frame.Reader, error) {
	raw, err := r.RawFrameData()
	if err != nil {
		return nil, err
	}
	return frame.NewReader(bytes.NewReader(raw), r.is.MaxPlayer())
}
