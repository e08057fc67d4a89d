// Package queue defines message payloads exchanged over the message broker.
package queue

// TokenRefreshedQueue is the durable queue carrying TokenRefreshedEvent.
const TokenRefreshedQueue = "token.refreshed"

// TokenRefreshedEvent is published after a pipeline token's secret has been
// rotated.  It identifies the token and the admin who rotated it; the secret
// itself is never part of the event.
type TokenRefreshedEvent struct {
	TokenID     uint64 `json:"token_id"`
	TokenName   string `json:"token_name"`
	PipelineID  uint64 `json:"pipeline_id"`
	Username    string `json:"username"`
	SCMContext  string `json:"scm_context"`
	RefreshedAt string `json:"refreshed_at"`
}
