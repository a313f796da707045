package walog

import "errors"

// ErrCorruptLog is returned by Replay when a malformed record is found
// anywhere other than the final record of the file. A malformed final
// record is assumed to be a torn write from a crash mid-append and is
// dropped silently instead.
var ErrCorruptLog = errors.New("walog: corrupt log record")
