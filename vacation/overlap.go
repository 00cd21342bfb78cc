/*
overlap.go - Conflict detection against a user's existing requests

INVARIANT:
  No two pending/approved requests for the same user share a calendar day.

  Ranges are inclusive on both ends, and so is the overlap rule: a request
  ending on day N conflicts with one starting on day N. Rejected requests
  never conflict.
*/
package vacation

import "context"

// Overlaps reports whether the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] share at least one calendar day.
func Overlaps(aStart, aEnd, bStart, bEnd Date) bool {
	return aStart.BeforeOrEqual(bEnd) && bStart.BeforeOrEqual(aEnd)
}

// OverlapDetector checks a proposed range against a user's stored requests.
type OverlapDetector struct {
	requests RequestStore
}

func NewOverlapDetector(requests RequestStore) *OverlapDetector {
	return &OverlapDetector{requests: requests}
}

// FindConflict returns the first pending or approved request of the user
// that overlaps [start, end], or nil if the range is free. excludeID lets a
// request skip itself when re-validated during review; pass "" otherwise.
func (d *OverlapDetector) FindConflict(ctx context.Context, userID UserID, start, end Date, excludeID RequestID) (*Request, error) {
	existing, err := d.requests.ListRequestsByUser(ctx, userID)
	if err != nil {
		return nil, internal("list requests for overlap check", err)
	}

	for i := range existing {
		r := &existing[i]
		if r.ID == excludeID || !r.Active() {
			continue
		}
		if Overlaps(start, end, r.StartDate, r.EndDate) {
			return r, nil
		}
	}
	return nil, nil
}

// HasOverlap is FindConflict reduced to a boolean.
func (d *OverlapDetector) HasOverlap(ctx context.Context, userID UserID, start, end Date, excludeID RequestID) (bool, error) {
	conflict, err := d.FindConflict(ctx, userID, start, end, excludeID)
	return conflict != nil, err
}
