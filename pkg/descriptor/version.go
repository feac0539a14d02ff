package descriptor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Version struct {
	Major int
	Minor int
	Patch int
}

func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q: want major.minor.patch", s)
	}
	var nums [3]int
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return Version{}, fmt.Errorf("version %q: component %q is not a non-negative integer", s, p)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("version %q: %w", s, err)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// BumpPatch increments the patch component. It refuses rather than wrap
// when the patch is already the largest representable value.
func (v Version) BumpPatch() (Version, error) {
	if v.Patch == math.MaxInt {
		return v, fmt.Errorf("%w: patch component of %s cannot be incremented", ErrMalformed, v)
	}
	v.Patch++
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ArtifactName is the file name the packager writes for this version.
func ArtifactName(name string, v Version, ext string) string {
	return fmt.Sprintf("%s-%s.%s", name, v, strings.TrimPrefix(ext, "."))
}
