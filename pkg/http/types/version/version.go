package version

import "fmt"

// Version is an HTTP protocol version as it appears in a status line.
type Version struct {
	Major int
	Minor int
}

var (
	Http10 = Version{Major: 1, Minor: 0}
	Http11 = Version{Major: 1, Minor: 1}
)

func (version Version) String() string {
	return fmt.Sprintf("HTTP/%d.%d", version.Major, version.Minor)
}

func (version Version) MarshalText() ([]byte, error) {
	return []byte(version.String()), nil
}

func (version Version) Valid() bool {
	return version.Major >= 0 && version.Major <= 9 && version.Minor >= 0 && version.Minor <= 9
}
