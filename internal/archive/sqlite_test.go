package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/lmbench/internal/results"
)

var base = time.Date(2026, 1, 26, 0, 44, 13, 0, time.Local)

func sampleRun(model string, n int) results.Run {
	var recs []results.Record
	for i := 0; i < n; i++ {
		req := results.Request{Model: model, Prompt: "Tell me about Rome", MaxTokens: 100, Temperature: 0.7}
		sent := base.Add(time.Duration(i) * 10 * time.Second)
		rec := results.NewSuccess(req, sent, sent.Add(2*time.Second), 2*time.Second, "Rome was founded in 753 BC.",
			results.Usage{PromptTokens: 5, CompletionTokens: 10, TotalTokens: 15})
		recs = append(recs, rec.WithExperiment(results.Experiment{Topic: "Rome", SizeCategory: "short", SizeWords: 50, Repetition: i + 1}))
	}
	return results.Run{
		Metadata: results.Metadata{TotalRequests: n, GeneratedAt: results.NewTimestamp(base)},
		Results:  recs,
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestImportAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	run := sampleRun("qwen/qwen3-4b", 2)
	req := results.Request{Model: "qwen/qwen3-4b", Prompt: "slow"}
	run.Results = append(run.Results, results.NewFailure(req, base, base.Add(300*time.Second), 300*time.Second, results.Timeout()))
	run.Results = append(run.Results, results.NewFailure(req, base, base, 0, results.Failure("connection refused")))

	n, err := s.ImportRun(ctx, "benchmark_a.json", run)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := s.Records(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	first := got[0]
	assert.True(t, first.TimestampSend.Equal(base))
	assert.True(t, first.TimestampResponse.Equal(base.Add(2*time.Second)))
	require.NotNil(t, first.Response)
	assert.Equal(t, "Rome was founded in 753 BC.", *first.Response)
	require.NotNil(t, first.TotalTokens)
	assert.Equal(t, 15, *first.TotalTokens)
	assert.Equal(t, "short", first.SizeCategory)
	assert.Equal(t, 1, first.Repetition)
	assert.True(t, first.Status.IsSuccess())
	assert.Equal(t, 2, got[1].Repetition)

	timeout := got[2]
	assert.True(t, timeout.Status.IsTimeout())
	assert.Nil(t, timeout.Response)
	assert.Nil(t, timeout.TotalTokens)
	assert.Equal(t, 300.0, timeout.ElapsedSeconds)

	assert.Equal(t, results.Failure("connection refused"), got[3].Status)
	for _, r := range got {
		assert.NoError(t, r.Validate())
	}
}

func TestImportReplacesSameSource(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.ImportRun(ctx, "run.json", sampleRun("a", 3))
	require.NoError(t, err)
	_, err = s.ImportRun(ctx, "run.json", sampleRun("a", 2))
	require.NoError(t, err)

	got, err := s.Records(ctx, Filter{Source: "run.json"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].TotalRequests)
	assert.True(t, runs[0].GeneratedAt.Equal(base))
}

func TestRecordsFilter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.ImportRun(ctx, "a.json", sampleRun("model-a", 2))
	require.NoError(t, err)
	_, err = s.ImportRun(ctx, "b.json", sampleRun("model-b", 3))
	require.NoError(t, err)

	all, err := s.Records(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.Equal(t, "model-a", all[0].Model, "import order is kept")

	onlyB, err := s.Records(ctx, Filter{Model: "model-b"})
	require.NoError(t, err)
	assert.Len(t, onlyB, 3)

	none, err := s.Records(ctx, Filter{Model: "model-b", Source: "a.json"})
	require.NoError(t, err)
	assert.Empty(t, none)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.ImportRun(ctx, "a.json", sampleRun("m", 1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Records(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpenAndImportErrors(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)

	s := openStore(t)
	_, err = s.ImportRun(context.Background(), "", sampleRun("m", 1))
	assert.Error(t, err)
}
