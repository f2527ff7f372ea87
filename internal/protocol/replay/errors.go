package replay

import "errors"

var (
	ErrHeaderChecksum    = errors.New("replay: header checksum mismatch")
	ErrISChecksum        = errors.New("replay: initialization sequence checksum mismatch")
	ErrFrameDataChecksum = errors.New("replay: frame data checksum mismatch")
	ErrDecompress        = errors.New("replay: frame data decompression failed")
	ErrTruncated         = errors.New("replay: truncated file")
	ErrOutOfOrder        = errors.New("replay: writer used out of order")
	ErrTooLarge          = errors.New("replay: frame data exceeds 4 GiB")
)
