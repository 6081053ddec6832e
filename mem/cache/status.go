package cache

import "github.com/sarchlab/memhier/mem/cache/internal/tagging"

// A RequestStatus classifies the outcome of one cache access.
type RequestStatus int

// Access outcomes.
const (
	Hit RequestStatus = iota
	HitReserved
	Miss
	SectorMiss
	ReservationFail
)

var requestStatusNames = map[RequestStatus]string{
	Hit:             "Hit",
	HitReserved:     "HitReserved",
	Miss:            "Miss",
	SectorMiss:      "SectorMiss",
	ReservationFail: "ReservationFail",
}

func (s RequestStatus) String() string {
	return requestStatusNames[s]
}

func statusFromTag(s tagging.Status) RequestStatus {
	switch s {
	case tagging.Hit:
		return Hit
	case tagging.HitReserved:
		return HitReserved
	case tagging.Miss:
		return Miss
	case tagging.SectorMiss:
		return SectorMiss
	default:
		return ReservationFail
	}
}

// A SubmitResult is what the controller reports back to the issuer for one
// submitted request.
type SubmitResult int

// Submit results. The failure results are typed non-progress reports; the
// controller never retries on behalf of the issuer.
const (
	SubmitHit SubmitResult = iota
	SubmitMerged
	SubmitMissQueued
	SubmitMSHRMergeEntryFail
	SubmitMSHREntryFail
	SubmitReservationFail
)

var submitResultNames = map[SubmitResult]string{
	SubmitHit:                "Hit",
	SubmitMerged:             "Merged",
	SubmitMissQueued:         "MissQueued",
	SubmitMSHRMergeEntryFail: "MSHRMergeEntryFail",
	SubmitMSHREntryFail:      "MSHREntryFail",
	SubmitReservationFail:    "ReservationFail",
}

func (r SubmitResult) String() string {
	return submitResultNames[r]
}

// Failed returns true if the request was not accepted and the issuer must
// retry on a later cycle.
func (r SubmitResult) Failed() bool {
	switch r {
	case SubmitMSHRMergeEntryFail, SubmitMSHREntryFail, SubmitReservationFail:
		return true
	default:
		return false
	}
}
