package model

import "time"

// Token is a pipeline access token as stored in the `tokens` table.  Only a
// keyed hash of the secret is persisted.  Value holds the plain secret and is
// populated solely on the entity returned by a rotation.
//
// Fields:
//  ID          – primary key identifier.
//  PipelineID  – owning pipeline; never changes after creation.
//  Name        – unique per pipeline.
//  Description – free text shown in the UI.
//  Hash        – hex keyed hash of the secret value.
//  LastUsed    – last time the token authenticated a request (nullable).
//  Value       – plain secret, only set right after a rotation.
type Token struct {
	ID          uint64
	PipelineID  uint64
	Name        string
	Description string
	Hash        string
	LastUsed    *time.Time
	Value       string
}

// TokenJSON is the public projection of a token.  The hash never leaves the
// service; value is omitted unless the token was just rotated.
type TokenJSON struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	PipelineID  uint64     `json:"pipelineId"`
	LastUsed    *time.Time `json:"lastUsed,omitempty"`
	Value       string     `json:"value,omitempty"`
}

// ToJSON returns the public projection of t.
func (t *Token) ToJSON() TokenJSON {
	return TokenJSON{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		PipelineID:  t.PipelineID,
		LastUsed:    t.LastUsed,
		Value:       t.Value,
	}
}
