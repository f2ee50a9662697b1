// Package api carries the OpenAPI contract for the HTTP host.
// The document is the source of truth for the claim API; the handlers in
// pkg/adapters/httpapi serve it verbatim and their tests validate it.
package api

import _ "embed"

//go:embed openapi.yaml
var Spec []byte
