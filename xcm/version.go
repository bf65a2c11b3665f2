package xcm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedVersion is returned when a value cannot be represented in the requested version.
var ErrUnsupportedVersion = errors.New("unsupported xcm version")

// Version is an XCM wire version.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
	V3 Version = 3
)

// ParseVersion parses "v1", "V2", "3" style version names.
func ParseVersion(s string) (Version, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "v") {
	case "1":
		return V1, nil
	case "2":
		return V2, nil
	case "3":
		return V3, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, s)
}

func (v Version) String() string {
	return fmt.Sprintf("V%d", uint8(v))
}

// Validate reports whether v is a known version.
func (v Version) Validate() error {
	switch v {
	case V1, V2, V3:
		return nil
	}

	return fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
}

// locationIndex is the variant index of VersionedMultiLocation / VersionedMultiAssets.
// V2 reuses the V1 location layout under the same index.
func (v Version) locationIndex() (byte, error) {
	switch v {
	case V1, V2:
		return 1, nil
	case V3:
		return 3, nil
	}

	return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
}

// messageIndex is the variant index of VersionedXcm.
func (v Version) messageIndex() (byte, error) {
	switch v {
	case V2:
		return 2, nil
	case V3:
		return 3, nil
	case V1:
		return 0, fmt.Errorf("%w: V1 messages are not instruction lists", ErrUnsupportedVersion)
	}

	return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
}
