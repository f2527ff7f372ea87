package replay

import (
	"bytes"
	"fmt"
	"hash"
	"io"
	"math"

	"github.com/blainsmith/seahash"
	"github.com/danmuck/mwproto/internal/protocol"
	"github.com/danmuck/mwproto/internal/protocol/frame"
	"github.com/danmuck/mwproto/internal/protocol/header"
	"github.com/danmuck/mwproto/internal/protocol/initseq"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// Compress stores the frame data as an LZ4 frame. Data that does not
	// shrink is stored raw regardless.
	Compress bool
	// Scratch is handed to the IS builder.
	Scratch []byte
}

// Writer drives one replay file: NewWriter, BeginIS, StartFrames, Close.
type Writer struct {
	ws    io.WriteSeeker
	opts  Options
	start int64

	began  bool
	seq    *initseq.Sequence
	frames *frame.Writer
	sink   frameSink
	fh     header.FileHeader
	closed bool
	// closeErr is returned by every Close after the first one that wrote.
	closeErr error
}

// frameSink receives frame bytes. Uncompressed files stream straight to
// the file; compressed ones are buffered until Close.
type frameSink struct {
	w    io.Writer
	hash hash.Hash64
	buf  bytes.Buffer
	n    int64
	keep bool
}

func (s *frameSink) Write(p []byte) (int, error) {
	if s.keep {
		s.buf.Write(p)
		s.n += int64(len(p))
		return len(p), nil
	}
	n, err := s.w.Write(p)
	s.hash.Write(p[:n])
	s.n += int64(n)
	return n, err
}

// NewWriter reserves the FileHeader at the current offset of ws.
func NewWriter(ws io.WriteSeeker, opts Options) (*Writer, error) {
	start, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	var reserved [header.FileHeaderSize]byte
	if _, err := ws.Write(reserved[:]); err != nil {
		return nil, err
	}
	return &Writer{ws: ws, opts: opts, start: start}, nil
}

// BeginIS starts the initialization sequence directly after the FileHeader.
func (w *Writer) BeginIS(p initseq.Params) (*initseq.Builder, error) {
	if w.began {
		return nil, fmt.Errorf("%w: BeginIS called twice", ErrOutOfOrder)
	}
	b, err := initseq.NewBuilder(w.ws, p, w.opts.Scratch)
	if err != nil {
		return nil, err
	}
	w.began = true
	return b, nil
}

// StartFrames accepts the finished sequence and returns the frame sink.
func (w *Writer) StartFrames(seq *initseq.Sequence) (*frame.Writer, error) {
	if !w.began || w.seq != nil {
		return nil, fmt.Errorf("%w: StartFrames before BeginIS or twice", ErrOutOfOrder)
	}
	if seq == nil || seq.Start != w.start+header.FileHeaderSize {
		return nil, fmt.Errorf("%w: sequence was not built on this writer", ErrOutOfOrder)
	}
	w.seq = seq
	w.sink = frameSink{w: w.ws, hash: seahash.New(), keep: w.opts.Compress}
	fw, err := frame.NewWriter(&w.sink, protocol.PlayerID(seq.Header.MaxPlayer))
	if err != nil {
		return nil, err
	}
	w.frames = fw
	return fw, nil
}

// Close writes any buffered frame data and patches the FileHeader. Once it
// has started writing it is not retried: a later Close returns the same
// result.
func (w *Writer) Close() error {
	if w.closed {
		return w.closeErr
	}
	if w.seq == nil {
		return fmt.Errorf("%w: Close before StartFrames", ErrOutOfOrder)
	}
	if w.sink.n > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, w.sink.n)
	}
	w.closed = true
	if err := w.seal(); err != nil {
		w.closeErr = fmt.Errorf("replay: close failed: %w", err)
		return w.closeErr
	}
	return nil
}

func (w *Writer) seal() error {
	fh := header.FileHeader{
		ChecksumIS:      w.seq.Checksum,
		LenFrameDataRaw: uint32(w.sink.n),
	}
	if w.opts.Compress {
		persisted, err := compress(w.sink.buf.Bytes())
		if err != nil {
			return err
		}
		if _, err := w.ws.Write(persisted); err != nil {
			return err
		}
		fh.ChecksumFrameData = seahash.Sum64(persisted)
		fh.LenFrameDataCompressed = uint32(len(persisted))
	} else {
		fh.ChecksumFrameData = w.sink.hash.Sum64()
		fh.LenFrameDataCompressed = fh.LenFrameDataRaw
	}

	end, err := w.ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	packed := header.Seal(&fh, w.seq.Header)
	if _, err := w.ws.Seek(w.start, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.ws.Write(packed[:header.FileHeaderSize]); err != nil {
		return err
	}
	if _, err := w.ws.Seek(end, io.SeekStart); err != nil {
		return err
	}
	w.fh = fh

	stats := w.frames.Stats()
	log.Debug().
		Uint32("len_raw", fh.LenFrameDataRaw).
		Uint32("len_persisted", fh.LenFrameDataCompressed).
		Uint64("frames", stats.Frames()).
		Dur("elapsed", w.frames.Elapsed()).
		Msg("replay closed")
	return nil
}

// FileHeader is the header written by Close.
func (w *Writer) FileHeader() header.FileHeader {
	return w.fh
}

// compress returns raw itself when the LZ4 frame would not be smaller, so a
// length mismatch in the header always means compressed data.
func compress(raw []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := lz4.NewWriter(&out)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if out.Len() >= len(raw) {
		return raw, nil
	}
	return out.Bytes(), nil
}
