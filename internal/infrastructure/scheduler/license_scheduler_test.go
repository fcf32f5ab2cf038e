package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	applicensing "github.com/notaris/backend/internal/application/licensing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingVerifier struct {
	calls atomic.Int32
	err   error
}

func (v *countingVerifier) VerifyAll(ctx context.Context) (*applicensing.VerifyAllResult, error) {
	v.calls.Add(1)
	if v.err != nil {
		return nil, v.err
	}
	return &applicensing.VerifyAllResult{Total: 1, Verified: 1}, nil
}

func TestNewLicenseScheduler_InvalidInterval(t *testing.T) {
	_, err := NewLicenseScheduler(&countingVerifier{}, zap.NewNop(), LicenseSchedulerConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLicenseScheduler_RunsOnInterval(t *testing.T) {
	v := &countingVerifier{}
	s, err := NewLicenseScheduler(v, zap.NewNop(), LicenseSchedulerConfig{
		Interval:     10 * time.Millisecond,
		InitialDelay: time.Millisecond,
		RunTimeout:   time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	require.Eventually(t, func() bool { return v.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())

	after := v.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, v.calls.Load())
}

func TestLicenseScheduler_TriggerNow(t *testing.T) {
	v := &countingVerifier{err: errors.New("db down")}
	s, err := NewLicenseScheduler(v, zap.NewNop(), LicenseSchedulerConfig{Interval: time.Hour, InitialDelay: time.Hour})
	require.NoError(t, err)

	assert.ErrorIs(t, s.TriggerNow(context.Background()), ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	require.NoError(t, s.TriggerNow(context.Background()))
	require.Eventually(t, func() bool { return v.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}
