package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDerivedQuantities(t *testing.T) {
	cases := []struct {
		name          string
		n, m          int
		wantE         int
		wantR         int
		wantOmega     int
		wantQuorum    int
		wantFullWeigh int
	}{
		{"n16m4", 16, 4, 1, 4, 1, 3, 3},
		{"n17m4", 17, 4, 1, 5, 1, 3, 3},
		{"n1m1", 1, 1, 0, 1, 0, 1, 1},
		{"n100m10", 100, 10, 3, 10, 3, 7, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{N: tc.n, M: tc.m, RoundTimeout: time.Second, InPrep2Deadline: time.Second}
			require.Equal(t, tc.wantE, cfg.E())
			require.Equal(t, tc.wantR, cfg.R())
			require.Equal(t, tc.wantOmega, cfg.Omega())
			require.Equal(t, tc.wantQuorum, cfg.Quorum())
			require.Equal(t, tc.wantFullWeigh, cfg.FullWeightThreshold())
		})
	}
}

func TestCoordinatorDeadlineAddsSlack(t *testing.T) {
	cfg := Config{N: 1, M: 1, RoundTimeout: time.Second, InPrep2Deadline: time.Second}
	require.Equal(t, 1700*time.Millisecond, cfg.CoordinatorDeadline())
}

func TestValidate(t *testing.T) {
	base := Config{N: 4, M: 2, RoundTimeout: time.Second, InPrep2Deadline: time.Second}
	require.NoError(t, base.Validate())

	bad := base
	bad.N = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.M = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.View = -1
	require.Error(t, bad.Validate())

	bad = base
	bad.RoundTimeout = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.InPrep2Deadline = 0
	require.Error(t, bad.Validate())
}

func TestBuilder(t *testing.T) {
	cfg, err := NewBuilder().N(16).M(4).View(2).Build()
	require.NoError(t, err)
	require.Equal(t, 16, cfg.N)
	require.Equal(t, 4, cfg.M)
	require.Equal(t, 2, cfg.View)
	require.Equal(t, "genesis", cfg.PrevHash)

	_, err = NewBuilder().M(4).Build()
	require.Error(t, err)
}
