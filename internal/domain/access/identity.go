package access

import (
	"fmt"
	"strconv"
)

// Identity is who an access is accounted to: a signed-in consumer by id, or
// an anonymous client by IP address. Never both.
type Identity struct {
	consumerID int64
	ip         string
}

func SignedIn(consumerID int64) Identity {
	return Identity{consumerID: consumerID}
}

func Anonymous(ip string) Identity {
	return Identity{ip: ip}
}

// IdentityFor picks SignedIn when consumerID is set, otherwise Anonymous(ip).
func IdentityFor(consumerID int64, ip string) Identity {
	if consumerID > 0 {
		return SignedIn(consumerID)
	}
	return Anonymous(ip)
}

func (i Identity) IsSignedIn() bool { return i.consumerID > 0 }

func (i Identity) ConsumerID() int64 { return i.consumerID }

func (i Identity) IP() string { return i.ip }

// Key is a stable string form usable as a map key.
func (i Identity) Key() string {
	if i.IsSignedIn() {
		return "user:" + strconv.FormatInt(i.consumerID, 10)
	}
	return "ip:" + i.ip
}

func (i Identity) String() string {
	if i.IsSignedIn() {
		return fmt.Sprintf("user %d", i.consumerID)
	}
	if i.ip == "" {
		return "anonymous"
	}
	return "anonymous " + i.ip
}
