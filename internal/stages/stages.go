// Package stages holds the single ordered list of logistics stages a shipment
// moves through. The tracker, the admin console and the document generator all
// read it from here.
package stages

import "math"

// Version is bumped whenever a label changes or a stage is added.
const Version = 2

// UnknownIndex is returned by Index for a status that is not a stage.
const UnknownIndex = -1

// UnknownProgress is the floor shown for an unrecognised status so the
// progress bar is never empty.
const UnknownProgress = 5

const (
	OrderInitiated     = "Order Initiated"
	ReceivedWarehouse  = "Received at China Warehouse"
	QualityCheck       = "Quality Check & Consolidation"
	ContainerStuffing  = "Container Stuffing (Manifested)"
	VesselDeparted     = "Vessel Departed Origin"
	InTransit          = "In Transit (High Seas)"
	ArrivedPort        = "Arrived at TEMA Port"
	CustomsClearance   = "Customs Clearance in Progress"
	DutiesPaid         = "Duties Paid / Released"
	ReadyForCollection = "Ready for Pickup / Delivery"
)

var sequence = [...]string{
	OrderInitiated,
	ReceivedWarehouse,
	QualityCheck,
	ContainerStuffing,
	VesselDeparted,
	InTransit,
	ArrivedPort,
	CustomsClearance,
	DutiesPaid,
	ReadyForCollection,
}

// Count is the number of stages.
const Count = len(sequence)

// All returns a copy of the stage sequence in order.
func All() []string {
	out := make([]string, Count)
	copy(out, sequence[:])
	return out
}

// First returns the stage every new shipment starts in.
func First() string { return sequence[0] }

// Last returns the terminal stage.
func Last() string { return sequence[Count-1] }

// Index returns the 0-based position of status, or UnknownIndex.
func Index(status string) int {
	for i, s := range sequence {
		if s == status {
			return i
		}
	}
	return UnknownIndex
}

// Valid reports whether status is one of the known stages.
func Valid(status string) bool {
	return Index(status) != UnknownIndex
}

// ProgressPercent maps a status onto 0..100.
func ProgressPercent(status string) int {
	idx := Index(status)
	if idx == UnknownIndex {
		return UnknownProgress
	}
	return int(math.Round(float64(idx+1) / float64(Count) * 100))
}

// Next returns the stage after status. The last stage and unknown statuses
// return ok=false.
func Next(status string) (string, bool) {
	idx := Index(status)
	if idx == UnknownIndex || idx == Count-1 {
		return "", false
	}
	return sequence[idx+1], true
}
