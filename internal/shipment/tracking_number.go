package shipment

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// TrackingPrefix is prepended to every generated tracking number.
const TrackingPrefix = "JB-CN-"

var trackingPattern = regexp.MustCompile(`^JB-CN-\d{6}$`)

// Rand is the subset of *rand.Rand used for tracking numbers.
type Rand interface {
	IntN(n int) int
}

// GenerateTrackingNumber returns JB-CN- followed by a number in [100000, 999999].
// A nil rng uses the package-level source.
func GenerateTrackingNumber(rng Rand) string {
	var n int
	if rng == nil {
		n = rand.IntN(900000)
	} else {
		n = rng.IntN(900000)
	}
	return fmt.Sprintf("%s%06d", TrackingPrefix, 100000+n)
}

// ValidTrackingNumber reports whether s has the JB-CN-###### shape. Case is
// ignored so user input can be checked before normalising.
func ValidTrackingNumber(s string) bool {
	return trackingPattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}
