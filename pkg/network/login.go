package network

import (
	"fmt"
	"strconv"

	"github.com/ZentaChain/fcm-receiver/pkg/mcs"
)

// Login identity of a Chrome desktop client
const (
	LoginID     = "chrome-63.0.3234.0"
	LoginDomain = "mcs.android.com"
	NetworkType = 1
)

// loginRequest builds the login for the stored GCM identity. The current
// persistent ids are copied into it, the list itself is left untouched.
func (c *Client) loginRequest() (*mcs.LoginRequest, error) {
	androidID, err := strconv.ParseInt(c.gcm.AndroidID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAndroidID, c.gcm.AndroidID)
	}

	var received []string
	if len(c.PersistentIDs) > 0 {
		received = append([]string(nil), c.PersistentIDs...)
	}

	return &mcs.LoginRequest{
		ID:                    LoginID,
		Domain:                LoginDomain,
		User:                  c.gcm.AndroidID,
		Resource:              c.gcm.AndroidID,
		AuthToken:             c.gcm.SecurityToken,
		DeviceID:              fmt.Sprintf("android-%x", androidID),
		Settings:              []mcs.Setting{{Name: "new_vc", Value: "1"}},
		ReceivedPersistentIDs: received,
		AdaptiveHeartbeat:     false,
		UseRMQ2:               true,
		AuthService:           mcs.AuthServiceAndroidID,
		NetworkType:           NetworkType,
	}, nil
}
