// Package identity models the caller of the generation API: an anonymous
// device or a signed-in user. Which ledger is authoritative for quota and
// credits follows from this distinction.
package identity

import "fmt"

// Identity identifies a caller. DeviceID is always present and keys the
// local usage ledger; UserID is set only for signed-in callers and keys
// the remote ledger and credit balance.
type Identity struct {
	DeviceID string
	UserID   string
}

func Anonymous(deviceID string) Identity {
	return Identity{DeviceID: deviceID}
}

func SignedIn(deviceID, userID string) Identity {
	return Identity{DeviceID: deviceID, UserID: userID}
}

func (i Identity) IsSignedIn() bool {
	return i.UserID != ""
}

// Key returns a stable cache key for the identity.
func (i Identity) Key() string {
	if i.IsSignedIn() {
		return "user:" + i.UserID
	}
	return "device:" + i.DeviceID
}

func (i Identity) String() string {
	if i.IsSignedIn() {
		return fmt.Sprintf("user(%s)", i.UserID)
	}
	return fmt.Sprintf("device(%s)", i.DeviceID)
}
