package initseq

import "errors"

var (
	ErrStageConsumed    = errors.New("initseq: stage already consumed")
	ErrInvalidParams    = errors.New("initseq: invalid params")
	ErrMapMismatch      = errors.New("initseq: map does not match params")
	ErrTopologyMismatch = errors.New("initseq: topology mismatch")
	ErrTooManyCits      = errors.New("initseq: too many cities")
	ErrNameTooLong      = errors.New("initseq: name too long")
	ErrPlayerCount      = errors.New("initseq: player count does not match max player id")
	ErrSectionTooLarge  = errors.New("initseq: section too large")
	ErrSectionLength    = errors.New("initseq: section length mismatch")
	ErrSectionAbsent    = errors.New("initseq: section absent")
	ErrTruncated        = errors.New("initseq: truncated sequence")
	ErrDecompress       = errors.New("initseq: map decompression failed")
)
