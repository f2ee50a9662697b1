/*
Package adjuster runs a self-contained insurance claim workflow: visual
evidence goes in, two cooperating agents negotiate it, and a settled claim
result comes out.

It implements a single observable session that moves through fixed steps
(idle, uploading, analyzing, negotiating, completed). A requesting agent
proposes the claim built from a vision analysis, a policy agent evaluates
it against an approval threshold, and approved claims get a payment
initiated automatically. Every exchanged message lands in an append-only
transcript you can watch live.

# Concept

The package treats the claim as a tiny state machine with controlled
side-effects. The workflow manages transitions, the transcript and the
result, while your application ("Host") supplies the I/O: where evidence
comes from, how the session is rendered, and which vision backend analyzes
the images. This Hexagonal Architecture allows the workflow to be embedded
in any interface: CLI, HTTP server, or AI agent infrastructure.

# Key Features

  - Deterministic Negotiation: Given the same report and threshold, the
    transcript and outcome are always reproducible.
  - Hexagonal Architecture: Core logic is decoupled from adapters
    (vision backends, session mirrors, transports).
  - Observable Sessions: Snapshots, subscriptions and lifecycle hooks
    expose every transition as it happens.
  - Strict Contracts: Evidence and reports are validated up front so a
    malformed claim never reaches negotiation.

# Usage

Initialize the workflow with an analyzer and submit evidence. The bundled
simulated analyzer needs no network access.

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/adjuster"
		"github.com/aretw0/adjuster/pkg/adapters/vision"
		"github.com/aretw0/adjuster/pkg/domain"
	)

	func main() {
		wf, err := adjuster.New(vision.NewSimulated())
		if err != nil {
			log.Fatal(err)
		}

		err = wf.Submit(context.Background(), domain.Evidence{
			Name:      "crash.jpg",
			MediaType: "image/jpeg",
			Data:      []byte("aGl0LWFuZC1ydW4="),
		})
		if err != nil {
			log.Fatal(err)
		}

		session := wf.Snapshot()
		fmt.Println("status:", session.Result.Status)
		fmt.Println("reference:", session.Result.ReferenceID)
	}
*/
package adjuster
