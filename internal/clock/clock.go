// Package clock defines the time source injected wherever timestamps enter
// harvested data, so tests can pin time.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}
