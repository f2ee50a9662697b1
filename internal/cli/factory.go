package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/aretw0/adjuster"
	"github.com/aretw0/adjuster/internal/adapters/file"
	"github.com/aretw0/adjuster/internal/adapters/redis"
	"github.com/aretw0/adjuster/internal/config"
	"github.com/aretw0/adjuster/pkg/adapters/vision"
	"github.com/aretw0/adjuster/pkg/pacing"
	"github.com/aretw0/adjuster/pkg/persistence/middleware"
	"github.com/aretw0/adjuster/pkg/ports"
)

// BuildWorkflow assembles a claim workflow from configuration: the analyzer
// (remote vision gateway or simulated profiles), the phase pacer, and the
// snapshot mirror. Host-specific options in extra are appended last so they
// win over the config-derived ones.
//
// The returned cleanup releases mirror resources and must be called once the
// workflow is no longer needed.
func BuildWorkflow(cfg *config.Config, logger *slog.Logger, extra ...adjuster.Option) (*adjuster.Workflow, func(), error) {
	analyzer, err := buildAnalyzer(cfg.Vision, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building analyzer: %w", err)
	}

	opts := []adjuster.Option{
		adjuster.WithThreshold(cfg.Workflow.ApprovalThreshold),
		adjuster.WithLogger(logger),
	}
	if cfg.Workflow.PhaseDelay > 0 {
		opts = append(opts, adjuster.WithPacer(pacing.Fixed(cfg.Workflow.PhaseDelay)))
	}

	mirror, cleanup, err := openMirror(cfg)
	if err != nil {
		return nil, nil, err
	}
	if mirror != nil {
		opts = append(opts, adjuster.WithPublisher(mirror))
	}

	opts = append(opts, extra...)

	wf, err := adjuster.New(analyzer, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return wf, cleanup, nil
}

// OpenMirror returns the snapshot mirror this process is configured to
// publish to, without building a workflow around it. Read-only commands use
// it to inspect a session run by another process. Returns a nil mirror when
// none is configured.
func OpenMirror(cfg *config.Config) (ports.SnapshotPublisher, func(), error) {
	return openMirror(cfg)
}

func openMirror(cfg *config.Config) (ports.SnapshotPublisher, func(), error) {
	var mirror ports.SnapshotPublisher
	cleanup := func() {}

	switch {
	case cfg.Redis.Addr != "":
		var ropts []redis.Option
		if cfg.Redis.Key != "" {
			ropts = append(ropts, redis.WithKey(cfg.Redis.Key))
		}
		if cfg.Redis.Channel != "" {
			ropts = append(ropts, redis.WithChannel(cfg.Redis.Channel))
		}
		publisher := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, ropts...)
		mirror = publisher
		cleanup = func() { _ = publisher.Close() }
	case cfg.Snapshot.File != "":
		mirror = file.New(cfg.Snapshot.File)
	default:
		return nil, cleanup, nil
	}

	wrapped, err := applyPrivacy(cfg.Snapshot, mirror)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return wrapped, cleanup, nil
}

// applyPrivacy stacks the configured privacy middleware onto a mirror:
// params masking runs first, sealing last, so ciphertext covers the already
// masked snapshot.
func applyPrivacy(cfg config.SnapshotConfig, mirror ports.SnapshotPublisher) (ports.SnapshotPublisher, error) {
	if cfg.EncryptionKey != "" {
		active, err := decodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		fallbacks := make([][]byte, 0, len(cfg.FallbackKeys))
		for _, k := range cfg.FallbackKeys {
			raw, err := decodeKey(k)
			if err != nil {
				return nil, err
			}
			fallbacks = append(fallbacks, raw)
		}
		mirror = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		})(mirror)
	}

	if len(cfg.MaskParams) > 0 {
		for _, p := range cfg.MaskParams {
			if _, err := regexp.Compile(p); err != nil {
				return nil, fmt.Errorf("invalid snapshot mask pattern %q: %w", p, err)
			}
		}
		mirror = middleware.NewPIIMiddleware(cfg.MaskParams)(mirror)
	}

	return mirror, nil
}

func decodeKey(hexKey string) ([]byte, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot encryption key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("snapshot encryption key must be 32 bytes (64 hex chars), got %d", len(raw))
	}
	return raw, nil
}

func buildAnalyzer(cfg config.VisionConfig, logger *slog.Logger) (ports.Analyzer, error) {
	if cfg.Endpoint != "" {
		copts := []vision.ClientOption{vision.WithLogger(logger)}
		if cfg.Token != "" {
			copts = append(copts, vision.WithToken(cfg.Token))
		}
		return vision.NewClient(cfg.Endpoint, copts...)
	}

	var sopts []vision.SimulatedOption
	if cfg.ProfilesFile != "" {
		profiles, err := vision.LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			return nil, fmt.Errorf("loading vision profiles: %w", err)
		}
		sopts = append(sopts, vision.WithProfiles(profiles))
	}
	if cfg.Profile != "" {
		sopts = append(sopts, vision.WithFixedProfile(cfg.Profile))
	}
	return vision.NewSimulated(sopts...), nil
}
