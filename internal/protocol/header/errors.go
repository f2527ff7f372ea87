package header

import (
	"errors"
	"fmt"
)

var (
	ErrShortHeader     = errors.New("header: short header")
	ErrVersionMismatch = errors.New("header: incompatible format version")
	ErrInvalidTopology = errors.New("header: invalid topology")
	ErrInvalidMapSize  = errors.New("header: invalid map size")
	ErrInvalidPlayers  = errors.New("header: invalid max player id")
)

// VersionError reports the version found in a header next to the version
// this build understands.
type VersionError struct {
	Got  Version
	Want Version
}

func (e VersionError) Error() string {
	return fmt.Sprintf("header: incompatible format version %s (want %s)", e.Got, e.Want)
}

func (e VersionError) Is(target error) bool {
	return target == ErrVersionMismatch
}
