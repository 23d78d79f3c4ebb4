package access

import (
	"time"

	"vaultshare/internal/domain/auth"
	"vaultshare/internal/domain/file"
)

// Input is everything a decision depends on besides the file itself.
// History holds the timestamps of the identity's granted content accesses.
type Input struct {
	Identity Identity
	Password *string
	Now      time.Time
	History  []time.Time
}

// Decision is the outcome of Evaluate. A denial is data, not an error.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`
}

func allow() Decision { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// Evaluate applies the access policy of f. Checks run in a fixed order and
// the first failing one decides the reason. Evaluate never mutates f.
func Evaluate(f *file.File, in Input) Decision {
	switch {
	case f.IsDeleted:
		return deny(ReasonDeleted)
	case !f.IsActive:
		return deny(ReasonInactive)
	case f.IsExpired(in.Now):
		return deny(ReasonExpired)
	case f.ViewLimitReached():
		return deny(ReasonViewLimit)
	}

	if f.HasPassword() {
		if in.Password == nil || *in.Password == "" {
			return deny(ReasonPasswordRequired)
		}
		// bcrypt compares in constant time
		if auth.CheckPassword(*in.Password, *f.PasswordHash) != nil {
			return deny(ReasonWrongPassword)
		}
	}

	if f.RequireSignin && !in.Identity.IsSignedIn() {
		return deny(ReasonSigninRequired)
	}

	if f.MaxViewsPerConsumer > 0 {
		w := Windower{Duration: f.SessionWindow()}
		if w.Count(in.History) >= f.MaxViewsPerConsumer {
			return deny(ReasonConsumerLimitExceeded)
		}
	}

	return allow()
}
