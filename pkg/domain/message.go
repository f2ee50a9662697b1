package domain

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// AgentRole identifies one of the two negotiating parties.
type AgentRole string

const (
	// RoleRequester acts on behalf of the claimant and proposes claims.
	RoleRequester AgentRole = "requesting-agent"
	// RolePolicy evaluates proposals against policy and settles payments.
	RolePolicy AgentRole = "policy-agent"
)

// Opposite returns the other party. Unknown roles return themselves.
func (r AgentRole) Opposite() AgentRole {
	switch r {
	case RoleRequester:
		return RolePolicy
	case RolePolicy:
		return RoleRequester
	}
	return r
}

// Protocol labels which conversation a transcript entry belongs to.
type Protocol string

const (
	ProtocolNegotiation Protocol = "negotiation-protocol"
	ProtocolPayment     Protocol = "payment-protocol"
)

// MessageStatus marks the disposition of a transcript entry.
type MessageStatus string

const (
	// StatusSent marks a message dispatched by its sender.
	StatusSent MessageStatus = "SENT"
	// StatusReceived marks a message acknowledged but not yet acted on.
	// The built-in agents act immediately, so entries normally skip straight
	// from SENT to a PROCESSED reply; the status exists for hosts that relay
	// transcripts from slower transports.
	StatusReceived MessageStatus = "RECEIVED"
	// StatusProcessed marks a reply produced after handling a prior message.
	StatusProcessed MessageStatus = "PROCESSED"
)

// Payload is the method envelope carried by every transcript entry.
// Params are free-form: the workflow records them verbatim and leaves
// interpretation to whichever host renders the transcript.
type Payload struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params,omitempty"`
}

// DecodeParams maps the free-form params onto a typed struct.
// Field matching follows mapstructure tags on out.
func (p Payload) DecodeParams(out any) error {
	if err := mapstructure.Decode(p.Params, out); err != nil {
		return fmt.Errorf("decode %s params: %w", p.Method, err)
	}
	return nil
}

// Message is one append-only transcript entry exchanged between the agents.
type Message struct {
	Time     time.Time     `json:"time"`
	From     AgentRole     `json:"from"`
	To       AgentRole     `json:"to"`
	Protocol Protocol      `json:"protocol"`
	Status   MessageStatus `json:"status"`
	Payload  Payload       `json:"payload"`
}

// VerifyTranscript checks the conversational causality invariant: every
// PROCESSED entry must be preceded by a SENT entry from the opposite agent.
// An empty transcript is valid.
func VerifyTranscript(entries []Message) error {
	for i, entry := range entries {
		if entry.Status != StatusProcessed {
			continue
		}
		if !hasPriorSent(entries[:i], entry.From.Opposite()) {
			return fmt.Errorf("transcript entry %d: %s reply %q has no prior message from %s",
				i, entry.Status, entry.Payload.Method, entry.From.Opposite())
		}
	}
	return nil
}

func hasPriorSent(entries []Message, from AgentRole) bool {
	for _, entry := range entries {
		if entry.Status == StatusSent && entry.From == from {
			return true
		}
	}
	return false
}
