// Package middleware wraps snapshot mirrors with cross-cutting behavior.
// Claim sessions carry personal data (damage assessments, settlement
// amounts), so hosts that mirror them outside process memory can seal the
// snapshot with AES-GCM or mask selected payload fields first.
package middleware

import "github.com/aretw0/adjuster/pkg/ports"

// Middleware allows wrapping a SnapshotPublisher to add behavior.
type Middleware func(ports.SnapshotPublisher) ports.SnapshotPublisher
