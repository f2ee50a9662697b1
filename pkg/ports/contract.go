package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/adjuster/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotPublisherContract runs a suite of tests to verify that a
// SnapshotPublisher implementation adheres to the defined interface contract.
func RunSnapshotPublisherContract(t *testing.T, publisher SnapshotPublisher) {
	ctx := context.Background()

	session := domain.NewSession()
	session.Step = domain.StepNegotiating
	session.Report = &domain.DamageReport{
		Intensity:       domain.SeverityModerate,
		EstimatedCost:   3200,
		IdentifiedItems: []string{"front bumper"},
		Summary:         "Moderate front-end damage.",
	}
	session.Transcript = append(session.Transcript, domain.Message{
		Time:     time.Now().UTC().Truncate(time.Second),
		From:     domain.RoleRequester,
		To:       domain.RolePolicy,
		Protocol: domain.ProtocolNegotiation,
		Status:   domain.StatusSent,
		Payload:  domain.Payload{Method: "PROPOSE_CLAIM"},
	})
	session.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	t.Run("Load Before Publish", func(t *testing.T) {
		_, err := publisher.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrNoSnapshot)
	})

	t.Run("Publish and Load", func(t *testing.T) {
		err := publisher.Publish(ctx, session)
		require.NoError(t, err, "Publish should not return error")

		loaded, err := publisher.Load(ctx)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.Step, loaded.Step)
		require.NotNil(t, loaded.Report)
		assert.Equal(t, session.Report.EstimatedCost, loaded.Report.EstimatedCost)
		require.Len(t, loaded.Transcript, 1)
		assert.Equal(t, "PROPOSE_CLAIM", loaded.Transcript[0].Payload.Method)
	})

	t.Run("Publish Overwrites", func(t *testing.T) {
		reset := domain.NewSession()
		err := publisher.Publish(ctx, reset)
		require.NoError(t, err)

		loaded, err := publisher.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.StepIdle, loaded.Step)
		assert.Nil(t, loaded.Report)
		assert.Empty(t, loaded.Transcript)
	})

	t.Run("Clear", func(t *testing.T) {
		err := publisher.Publish(ctx, session)
		require.NoError(t, err)

		err = publisher.Clear(ctx)
		require.NoError(t, err, "Clear should not return error")

		_, err = publisher.Load(ctx)
		assert.ErrorIs(t, err, domain.ErrNoSnapshot, "Load after Clear should return ErrNoSnapshot")
	})
}
