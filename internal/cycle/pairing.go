package cycle

import "fmt"

// PairingKey returns the key that scopes cycles and shared mood state.
// A solo learner (partnerID zero, negative or equal to learnerID) is keyed by
// their own id twice. A pair gets the same key whichever partner asks.
func PairingKey(learnerID, partnerID int64) string {
	if partnerID <= 0 || partnerID == learnerID {
		return fmt.Sprintf("%d:%d", learnerID, learnerID)
	}
	low, high := learnerID, partnerID
	if high < low {
		low, high = high, low
	}
	return fmt.Sprintf("%d:%d", low, high)
}
