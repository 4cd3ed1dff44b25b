package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/forks"
	"github.com/aki/forksync/internal/core/git"
)

func sampleResults() []forks.Result {
	return []forks.Result{
		{
			Clone:   forks.CloneHandle{Name: "forkA", Path: "/forks/forkA"},
			Outcome: forks.OutcomeUpToDate,
			Remote:  "upstream",
			Branch:  "main",
			Before:  git.Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			After:   git.Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		},
		{
			Clone:   forks.CloneHandle{Name: "forkB", Path: "/forks/forkB"},
			Outcome: forks.OutcomeFailed,
			Reason:  forks.ReasonNetwork,
			Err:     fmt.Errorf("failed to fetch upstream: %w", git.ErrNetwork),
		},
	}
}

func TestNew(t *testing.T) {
	d := &config.Descriptor{Title: "Repo1", UpstreamURL: "git@host:upstream/repo1.git"}
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	finished := started.Add(3 * time.Second)

	r := New(d, "/forks", sampleResults(), started, finished)

	_, err := uuid.Parse(r.ID.String())
	assert.NoError(t, err)
	assert.Len(t, r.ID.Short(), 8)
	assert.Equal(t, "Repo1", r.Repository)
	assert.Equal(t, d.UpstreamURL, r.UpstreamURL)
	assert.Equal(t, 3*time.Second, r.Duration())
	assert.Equal(t, forks.Summary{Total: 2, UpToDate: 1, Failed: 1}, r.Summary)

	require.Len(t, r.Results, 2)
	assert.Equal(t, "forkA", r.Results[0].Clone)
	assert.Empty(t, r.Results[0].Error)
	assert.Equal(t, forks.ReasonNetwork, r.Results[1].Reason)
	assert.Contains(t, r.Results[1].Error, "network error")
	assert.NotEmpty(t, r.Results[1].Detail)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	_, err := store.Load(ctx)
	assert.True(t, errors.Is(err, ErrNoReport))

	d := &config.Descriptor{Title: "Repo1", UpstreamURL: "git@host:upstream/repo1.git"}
	now := time.Now().UTC().Truncate(time.Second)
	saved := New(d, "/forks", sampleResults(), now, now.Add(time.Second))
	saved.DryRun = true

	require.NoError(t, store.Save(ctx, saved))
	_, err = os.Stat(store.Path())
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, loaded.ID)
	assert.True(t, loaded.DryRun)
	assert.True(t, saved.StartedAt.Equal(loaded.StartedAt))
	assert.Equal(t, saved.Summary, loaded.Summary)
	assert.Equal(t, saved.Results, loaded.Results)

	// A later run replaces the earlier one
	next := New(d, "/forks", sampleResults()[:1], now, now)
	require.NoError(t, store.Save(ctx, next))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, loaded.ID)
	assert.Len(t, loaded.Results, 1)
}
