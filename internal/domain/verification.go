package domain

import "time"

// VerificationCode is a one-time 6-digit code delivered by email.
// Stored in the owning user's partition (PK: USER#<email>, SK: VERIFICATION#<code_id>)
// so several outstanding codes can coexist. ExpiresAt doubles as the DynamoDB
// TTL attribute; the issuer also checks it at read time since TTL deletion is
// not instantaneous.
type VerificationCode struct {
	CodeID    string    `json:"code_id" dynamodbav:"code_id"`
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"code" dynamodbav:"code"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
}

// Expired reports whether the code's expiry timestamp is in the past.
func (v *VerificationCode) Expired(now time.Time) bool {
	return v.ExpiresAt < now.Unix()
}
