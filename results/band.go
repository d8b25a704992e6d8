package results

// Band is the qualitative bucket of a 0-5 confidence score.
type Band int

const (
	NeedsImprovement Band = iota
	Fair
	Good
	Excellent
)

func BandFor(score float64) Band {
	switch {
	case score >= 4:
		return Excellent
	case score >= 3:
		return Good
	case score >= 2:
		return Fair
	default:
		return NeedsImprovement
	}
}

func (b Band) String() string {
	switch b {
	case Excellent:
		return "Excellent"
	case Good:
		return "Good"
	case Fair:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

func (b Band) ConfidenceLabel() string {
	switch b {
	case Excellent:
		return "Very Confident"
	case Good:
		return "Confident"
	case Fair:
		return "Somewhat Confident"
	default:
		return "Not Confident"
	}
}

// Color is a 256-color terminal code for the band.
func (b Band) Color() string {
	switch b {
	case Excellent:
		return "42"
	case Good:
		return "33"
	case Fair:
		return "178"
	default:
		return "196"
	}
}

func (b Band) MarshalText() ([]byte, error) { return []byte(b.String()), nil }
