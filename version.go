package adjuster

// Version is the current adjuster release. Overridable at build time via
// -ldflags "-X github.com/aretw0/adjuster.Version=...".
var Version = "0.3.0"
