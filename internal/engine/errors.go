package engine

import (
	"errors"
	"fmt"
)

// BuildHint tells the caller how to recover from a missing index.
const BuildHint = "POST /api/build to (re)build aggregate indexes"

// ErrNoIndexes reports that no requested year has the needed artifacts at
// all. Distinct from an empty result: the system has nothing to offer, the
// grid does not merely lack flow.
var ErrNoIndexes = errors.New("no indexes available")

// IndexMissingError reports that a requested year's artifact is absent.
type IndexMissingError struct {
	Years []int
	Kind  ArtifactKind
}

func (e *IndexMissingError) Error() string {
	return fmt.Sprintf("index missing: %s for years %v", e.Kind, e.Years)
}

// MissingSourceError reports an absent raw CSV source. Fatal for that year's
// build only; other years are unaffected.
type MissingSourceError struct {
	Year int
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing source for year %d: %s", e.Year, e.Path)
}

// IsIndexMissing reports whether err is an IndexMissingError and returns it.
func IsIndexMissing(err error) (*IndexMissingError, bool) {
	var im *IndexMissingError
	if errors.As(err, &im) {
		return im, true
	}
	return nil, false
}
