// Package classifier turns a window of brightness samples into a discrete
// indicator state.
package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jjfalling/indicator-checker/internal/sensor"
)

// State is the discrete indicator classification.
type State int

const (
	// Off means the indicator is dark.
	Off State = iota
	// On means the indicator is steadily lit.
	On
	// Blinking means the indicator alternates within the sample window.
	Blinking
)

// String renders the state as the protocol's status line.
func (s State) String() string {
	switch s {
	case Off:
		return "Indicator Off"
	case On:
		return "Indicator On"
	case Blinking:
		return "Indicator Blinking"
	}
	return "Indicator Unknown"
}

// Result is a classification outcome. Channels carries the representative
// sample's channel values for On and Blinking results of multi-channel
// sensors; for single-channel sensors Channels.Count is 0 and rendering
// omits color fields.
type Result struct {
	State    State
	Channels sensor.Sample
	Spread   int
	Min      int
}

// Classify reduces samples to per-sample scalar intensities and applies the
// threshold rules.
//
// The spread check wins over the low-limit check: a rapidly blinking but dim
// indicator is reported Blinking, not Off. Blinking carries the brightest
// sample's channels (a representative lit moment); On carries the first
// sample's.
func Classify(samples []sensor.Sample, blinkDiff, lowerLimit int) Result {
	if len(samples) == 0 {
		return Result{}
	}

	scalars := make([]int, len(samples))
	brightest := 0
	for i, s := range samples {
		scalars[i] = s.Intensity()
		if scalars[i] > scalars[brightest] {
			brightest = i
		}
	}

	// scalars is a private copy, so sorting cannot disturb the caller's
	// sample order.
	sort.Ints(scalars)
	spread := scalars[len(scalars)-1] - scalars[0]
	min := scalars[0]

	result := Result{Spread: spread, Min: min}
	switch {
	case spread > blinkDiff:
		result.State = Blinking
		result.Channels = representative(samples[brightest])
	case min < lowerLimit:
		result.State = Off
	default:
		result.State = On
		result.Channels = representative(samples[0])
	}
	return result
}

// representative strips single-channel samples down to nothing; only
// multi-channel sensors report channel values.
func representative(s sensor.Sample) sensor.Sample {
	if s.Count <= 1 {
		return sensor.Sample{}
	}
	return s
}

// Lines renders the result as protocol response lines: the status line,
// followed by one channel line per used channel for multi-channel results.
func (r Result) Lines(channels []string) []string {
	lines := []string{r.State.String()}
	if r.Channels.Count > 1 && len(channels) >= r.Channels.Count {
		parts := make([]string, r.Channels.Count)
		for i := 0; i < r.Channels.Count; i++ {
			parts[i] = fmt.Sprintf("%s: %d", channels[i], r.Channels.Values[i])
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}
