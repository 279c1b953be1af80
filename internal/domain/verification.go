package domain

import "time"

// PendingCode is a one-time login code waiting to be verified.
// At most one exists per identity; issuing a new code overwrites the previous one.
type PendingCode struct {
	Identity  string    `json:"identity" dynamodbav:"identity"`
	Code      string    `json:"-" dynamodbav:"code"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"-"`
}

// Expired reports whether the code is no longer usable at now.
func (p *PendingCode) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
