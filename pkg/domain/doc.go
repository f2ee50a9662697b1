/*
Package domain contains the core domain models for the claim-processing
workflow.

It defines the fundamental entities a session moves through, from evidence
intake to a settled claim result. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles; the only import beyond the standard library is
the mapstructure decoder used for free-form message payloads.

# Key Entities

  - Evidence: A single image or video submitted for a claim.
  - DamageReport: The structured assessment the vision collaborator returns.
  - Message: One append-only transcript entry exchanged between the agents.
  - ClaimResult: The terminal outcome (approved or routed to manual review).
  - Session: The observable snapshot of the single live claim.
*/
package domain
