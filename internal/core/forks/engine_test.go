package forks

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aki/forksync/internal/core/config"
	"github.com/aki/forksync/internal/core/git"
)

var repo1 = &config.Descriptor{Title: "Repo1", UpstreamURL: "git@host:upstream/repo1.git"}

type harness struct {
	graph  history
	opener fakeOpener
	clones []CloneHandle
	root   string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		graph:  history{},
		opener: fakeOpener{},
		root:   t.TempDir(),
	}
}

func (h *harness) add(name string, local, upstream git.Hash) *fakeRepo {
	path := filepath.Join(h.root, name)
	repo := newFakeRepo(h.graph, local, upstream)
	h.opener[path] = repo
	h.clones = append(h.clones, CloneHandle{Path: path, Name: name})
	return repo
}

func (h *harness) engine(opts ...Option) *Engine {
	return NewEngine(h.opener, append([]Option{WithLockDir(filepath.Join(h.root, "locks"))}, opts...)...)
}

// forkA is at the upstream tip, forkB is two commits behind and forkC has
// one local commit while missing one upstream commit.
func scenario(t *testing.T) (*harness, git.Hash) {
	h := newHarness(t)
	base := h.graph.chain("", "c0")
	tip := h.graph.chain(base, "u1", "u2")

	h.add("forkA", tip, tip)
	h.add("forkB", base, tip)

	// forkC shares u1 with upstream, then has its own commit
	local := h.graph.chain("u1", "c1")
	h.add("forkC", local, tip)

	return h, tip
}

func outcomes(results []Result) map[string]Outcome {
	out := make(map[string]Outcome, len(results))
	for _, r := range results {
		out[r.Clone.Name] = r.Outcome
	}
	return out
}

func TestSyncRepository_Scenario(t *testing.T) {
	h, tip := scenario(t)
	forkC := h.opener[h.clones[2].Path]
	forkCBefore := forkC.tip()

	results := h.engine().SyncRepository(context.Background(), repo1, h.clones)
	require.Len(t, results, 3)

	assert.Equal(t, map[string]Outcome{
		"forkA": OutcomeUpToDate,
		"forkB": OutcomeFastForwarded,
		"forkC": OutcomeDiverged,
	}, outcomes(results))

	assert.Equal(t, tip, h.opener[h.clones[1].Path].tip())
	assert.Equal(t, tip, results[1].After)
	assert.Equal(t, git.Hash("c0"), results[1].Before)

	assert.Equal(t, forkCBefore, forkC.tip())
	assert.False(t, results[2].LocalAhead)
	assert.Zero(t, forkC.ffCalls)

	assert.Zero(t, h.opener[h.clones[0].Path].ffCalls, "up to date clone is never written")
	for _, r := range results {
		assert.Same(t, repo1, r.Clone.Descriptor)
		assert.Equal(t, git.DefaultRemoteName, r.Remote)
		assert.Equal(t, "main", r.Branch)
	}
}

func TestSyncRepository_LocalAhead(t *testing.T) {
	h := newHarness(t)
	tip := h.graph.chain("", "c0", "c1")
	ahead := h.graph.chain(tip, "l1")
	repo := h.add("fork", ahead, tip)

	results := h.engine().SyncRepository(context.Background(), repo1, h.clones)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeDiverged, results[0].Outcome)
	assert.True(t, results[0].LocalAhead)
	assert.Equal(t, ahead, repo.tip())
	assert.Contains(t, results[0].Detail(), "ahead")
}

func TestSyncRepository_Idempotent(t *testing.T) {
	h := newHarness(t)
	base := h.graph.chain("", "c0")
	tip := h.graph.chain(base, "c1", "c2")
	h.add("a", base, tip)
	h.add("b", tip, tip)
	broken := h.add("c", base, tip)
	broken.fetchErr = fmt.Errorf("dial: %w", git.ErrNetwork)

	engine := h.engine()
	first := engine.SyncRepository(context.Background(), repo1, h.clones)
	assert.Equal(t, OutcomeFastForwarded, first[0].Outcome)

	second := engine.SyncRepository(context.Background(), repo1, h.clones)
	for _, r := range second {
		if r.Outcome == OutcomeFailed {
			continue
		}
		assert.Equal(t, OutcomeUpToDate, r.Outcome, r.Clone.Name)
	}
}

func TestSyncRepository_Isolation(t *testing.T) {
	h := newHarness(t)
	base := h.graph.chain("", "c0")
	tip := h.graph.chain(base, "c1")
	for i := 0; i < 5; i++ {
		repo := h.add(fmt.Sprintf("fork%d", i), base, tip)
		if i == 2 {
			repo.fetchErr = fmt.Errorf("failed to fetch upstream: %w", git.ErrNetwork)
		}
	}

	results := h.engine().SyncRepository(context.Background(), repo1, h.clones)
	require.Len(t, results, 5)

	summary := Summarize(results)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 4, summary.FastForwarded)
	assert.Equal(t, ReasonNetwork, results[2].Reason)
	assert.ErrorIs(t, results[2].Err, git.ErrNetwork)
	assert.Equal(t, base, h.opener[h.clones[2].Path].tip())
}

func TestSyncRepository_FailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *fakeRepo)
		reason FailureReason
	}{
		{
			name: "remote name taken",
			setup: func(r *fakeRepo) {
				r.remotes[git.DefaultRemoteName] = "git@host:someone/else.git"
			},
			reason: ReasonRemoteConflict,
		},
		{
			name: "dirty worktree",
			setup: func(r *fakeRepo) {
				r.ffErr = fmt.Errorf("README.md has local changes: %w", git.ErrWorkingTreeDirty)
			},
			reason: ReasonWorkingTreeDirty,
		},
		{
			name: "local branch missing",
			setup: func(r *fakeRepo) {
				r.branch = "trunk"
			},
			reason: ReasonBranchMissing,
		},
		{
			name: "other git failure",
			setup: func(r *fakeRepo) {
				r.ffErr = fmt.Errorf("object not found")
			},
			reason: ReasonGitError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			base := h.graph.chain("", "c0")
			tip := h.graph.chain(base, "c1")
			repo := h.add("fork", base, tip)
			tt.setup(repo)
			remotesBefore, _ := repo.Remotes()

			results := h.engine().SyncRepository(context.Background(), repo1, h.clones)
			require.Len(t, results, 1)
			assert.Equal(t, OutcomeFailed, results[0].Outcome)
			assert.Equal(t, tt.reason, results[0].Reason)
			assert.Error(t, results[0].Err)
			assert.Equal(t, base, repo.local["main"])

			if tt.reason == ReasonRemoteConflict {
				remotesAfter, _ := repo.Remotes()
				assert.Equal(t, remotesBefore, remotesAfter)
				assert.Zero(t, repo.fetches)
			}
		})
	}
}

func TestSyncRepository_UnopenableClone(t *testing.T) {
	h := newHarness(t)
	tip := h.graph.chain("", "c0")
	h.add("good", tip, tip)
	h.clones = append(h.clones, CloneHandle{Path: filepath.Join(h.root, "gone"), Name: "gone"})

	results := h.engine().SyncRepository(context.Background(), repo1, h.clones)
	require.Len(t, results, 2)
	assert.Equal(t, OutcomeUpToDate, results[0].Outcome)
	assert.Equal(t, OutcomeFailed, results[1].Outcome)
	assert.Equal(t, ReasonGitError, results[1].Reason)
	assert.ErrorIs(t, results[1].Err, git.ErrNotRepository)
}

func TestSyncRepository_DryRun(t *testing.T) {
	h, tip := scenario(t)
	forkB := h.opener[h.clones[1].Path]
	before := forkB.tip()

	results := h.engine(WithDryRun(true)).SyncRepository(context.Background(), repo1, h.clones)

	assert.Equal(t, map[string]Outcome{
		"forkA": OutcomeUpToDate,
		"forkB": OutcomeBehind,
		"forkC": OutcomeDiverged,
	}, outcomes(results))
	assert.Equal(t, before, forkB.tip())
	assert.Equal(t, tip, results[1].Upstream)
	assert.Equal(t, before, results[1].After)
	for _, c := range h.clones {
		assert.Zero(t, h.opener[c.Path].ffCalls, c.Name)
	}

	summary := Summarize(results)
	assert.Equal(t, 1, summary.Behind)
	assert.False(t, summary.AllUpToDate())
}

func TestSyncRepository_ParallelKeepsOrder(t *testing.T) {
	h := newHarness(t)
	base := h.graph.chain("", "c0")
	tip := h.graph.chain(base, "c1")
	for i := 0; i < 12; i++ {
		local := base
		if i%3 == 0 {
			local = tip
		}
		h.add(fmt.Sprintf("fork%02d", i), local, tip)
	}

	results := h.engine(WithJobs(4)).SyncRepository(context.Background(), repo1, h.clones)
	require.Len(t, results, len(h.clones))
	for i, r := range results {
		assert.Equal(t, h.clones[i].Name, r.Clone.Name)
		if i%3 == 0 {
			assert.Equal(t, OutcomeUpToDate, r.Outcome)
		} else {
			assert.Equal(t, OutcomeFastForwarded, r.Outcome)
		}
	}
}

func TestSyncRepository_Cancelled(t *testing.T) {
	h, _ := scenario(t)
	before := make(map[string]git.Hash)
	for _, c := range h.clones {
		before[c.Name] = h.opener[c.Path].tip()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := h.engine().SyncRepository(ctx, repo1, h.clones)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, OutcomeFailed, r.Outcome)
		assert.Equal(t, ReasonCancelled, r.Reason)
		assert.Equal(t, before[r.Clone.Name], h.opener[r.Clone.Path].tip())
	}
}

func TestSyncRepository_Observer(t *testing.T) {
	h := newHarness(t)
	base := h.graph.chain("", "c0")
	tip := h.graph.chain(base, "c1")
	h.add("fork", base, tip)

	var stages []Stage
	var done *Result
	engine := h.engine(WithObserver(func(ev Event) {
		assert.Equal(t, 0, ev.Index)
		stages = append(stages, ev.Stage)
		if ev.Stage == StageDone {
			done = ev.Result
		}
	}))

	engine.SyncRepository(context.Background(), repo1, h.clones)

	assert.Equal(t, []Stage{StageStarting, StageFetching, StageComparing, StageFastForwarding, StageDone}, stages)
	require.NotNil(t, done)
	assert.Equal(t, OutcomeFastForwarded, done.Outcome)
}

func TestSyncRepository_CustomRemote(t *testing.T) {
	h := newHarness(t)
	tip := h.graph.chain("", "c0")
	repo := h.add("fork", tip, tip)

	results := h.engine(WithRemote("canonical")).SyncRepository(context.Background(), repo1, h.clones)
	assert.Equal(t, "canonical", results[0].Remote)
	assert.Equal(t, repo1.UpstreamURL, repo.remotes["canonical"])
}

func TestDetectUpstream(t *testing.T) {
	t.Run("common upstream", func(t *testing.T) {
		h := newHarness(t)
		tip := h.graph.chain("", "c0")
		h.add("a", tip, tip).remotes[git.DefaultRemoteName] = repo1.UpstreamURL
		h.add("b", tip, tip)
		h.add("c", tip, tip).remotes[git.DefaultRemoteName] = repo1.UpstreamURL + "/"

		url, err := h.engine().DetectUpstream(context.Background(), h.clones)
		require.NoError(t, err)
		assert.Equal(t, repo1.UpstreamURL, url)
	})

	t.Run("conflicting upstreams", func(t *testing.T) {
		h := newHarness(t)
		tip := h.graph.chain("", "c0")
		h.add("a", tip, tip).remotes[git.DefaultRemoteName] = repo1.UpstreamURL
		h.add("b", tip, tip).remotes[git.DefaultRemoteName] = "git@host:other.git"

		_, err := h.engine().DetectUpstream(context.Background(), h.clones)
		assert.ErrorIs(t, err, ErrAmbiguousUpstream)
	})

	t.Run("no upstream", func(t *testing.T) {
		h := newHarness(t)
		tip := h.graph.chain("", "c0")
		h.add("a", tip, tip)

		_, err := h.engine().DetectUpstream(context.Background(), h.clones)
		assert.ErrorIs(t, err, ErrNoUpstream)
	})
}

func TestSummary(t *testing.T) {
	s := Summarize([]Result{
		{Outcome: OutcomeUpToDate},
		{Outcome: OutcomeFastForwarded},
	})
	assert.True(t, s.AllUpToDate())
	assert.Zero(t, s.NeedsAttention())

	s = Summarize([]Result{
		{Outcome: OutcomeUpToDate},
		{Outcome: OutcomeDiverged},
		{Outcome: OutcomeFailed},
	})
	assert.False(t, s.AllUpToDate())
	assert.Equal(t, 2, s.NeedsAttention())
	assert.Equal(t, 3, s.Total)
}
