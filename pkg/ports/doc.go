/*
Package ports defines the driven ports (interfaces) for the claim workflow.

These interfaces decouple the core logic from external implementations,
allowing the workflow to work with various vision backends, pacing policies,
and presentation mirrors.

# Key Interfaces

  - Analyzer: Turns submitted evidence into a DamageReport (remote gateway or simulated).
  - Pacer: Injects the deliberate delay between negotiation phases.
  - SnapshotPublisher: Mirrors the live session for external observers.
  - Workflow: The driving surface host adapters (HTTP, MCP, CLI) consume.
*/
package ports
