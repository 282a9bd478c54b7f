package recognize

import "time"

// Frame is one camera frame handed to the pipeline: an image file dropped
// into the spool directory by the capture glue.
type Frame struct {
	Path       string
	CapturedAt time.Time
}

// Kind tags the recognition result variant.
type Kind int

const (
	// KindNone means the frame produced no usable candidate.
	KindNone Kind = iota
	// KindBarcode carries a raw decoded barcode string.
	KindBarcode
	// KindText carries a normalized printed-text string.
	KindText
	// KindManualInput signals that recognition gave up and the operator
	// should enter the device identifier by hand.
	KindManualInput
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBarcode:
		return "barcode"
	case KindText:
		return "text"
	case KindManualInput:
		return "manual_input"
	default:
		return "unknown"
	}
}

// Result is the closed recognition variant. Exactly one of Candidate or
// Reason is meaningful, selected by Kind.
type Result struct {
	Kind      Kind
	Candidate string
	Reason    string
}

// NoCandidate returns the empty result for a frame with nothing usable.
func NoCandidate() Result {
	return Result{Kind: KindNone}
}

// BarcodeCandidate wraps a decoded barcode payload.
func BarcodeCandidate(value string) Result {
	return Result{Kind: KindBarcode, Candidate: value}
}

// TextCandidate wraps a normalized text payload.
func TextCandidate(value string) Result {
	return Result{Kind: KindText, Candidate: value}
}

// ManualInputRequired signals that the operator must type the identifier.
func ManualInputRequired(reason string) Result {
	return Result{Kind: KindManualInput, Reason: reason}
}
