package analysis

import (
	"bytes"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/lmbench/internal/results"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

func ok(model, size string, words, total, completion int, elapsed float64) results.Record {
	d := time.Duration(elapsed * float64(time.Second))
	req := results.Request{Model: model, Prompt: "prompt"}
	usage := results.Usage{PromptTokens: total - completion, CompletionTokens: completion, TotalTokens: total}
	return results.NewSuccess(req, t0, t0.Add(d), d, "response text", usage).
		WithExperiment(results.Experiment{SizeCategory: size, SizeWords: words})
}

func failed(model, size string, words int, status results.Status) results.Record {
	req := results.Request{Model: model, Prompt: "prompt"}
	return results.NewFailure(req, t0, t0, time.Second, status).
		WithExperiment(results.Experiment{SizeCategory: size, SizeWords: words})
}

func fixture() []results.Record {
	noTokens := results.NewSuccess(results.Request{Model: "a", Prompt: "p"}, t0, t0, time.Second, "x", results.Usage{}).
		WithExperiment(results.Experiment{SizeCategory: "short", SizeWords: 50})
	return []results.Record{
		ok("a", "short", 50, 100, 80, 2),
		ok("a", "short", 50, 140, 120, 4),
		ok("a", "long", 500, 1000, 900, 10),
		ok("b", "medium", 100, 300, 250, 5),
		failed("b", "medium", 100, results.Timeout()),
		failed("b", "long", 500, results.Failure("boom")),
		noTokens,
	}
}

func TestParseGroupBy(t *testing.T) {
	by, err := ParseGroupBy("")
	require.NoError(t, err)
	assert.Equal(t, BySizeCategory, by)

	by, err = ParseGroupBy("size_words")
	require.NoError(t, err)
	assert.Equal(t, BySizeWords, by)

	_, err = ParseGroupBy("model")
	assert.Error(t, err)
}

func TestTokenStatsBySizeCategory(t *testing.T) {
	groups := TokenStats(fixture(), BySizeCategory)
	assert.Equal(t, []TokenGroup{
		{Label: "long", Count: 1, Mean: 1000, Min: 1000, Max: 1000},
		{Label: "medium", Count: 1, Mean: 300, Min: 300, Max: 300},
		{Label: "short", Count: 2, Mean: 120, Min: 100, Max: 140},
	}, groups)
}

func TestTokenStatsBySizeWordsSortsNumerically(t *testing.T) {
	groups := TokenStats(fixture(), BySizeWords)
	require.Len(t, groups, 3)
	assert.Equal(t, "50", groups[0].Label)
	assert.Equal(t, "100", groups[1].Label)
	assert.Equal(t, "500", groups[2].Label)
}

func TestTokenStatsOrderIndependent(t *testing.T) {
	records := fixture()
	want := TokenStats(records, BySizeCategory)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		rng.Shuffle(len(records), func(a, b int) { records[a], records[b] = records[b], records[a] })
		assert.Equal(t, want, TokenStats(records, BySizeCategory))
		assert.Equal(t, Summarize(fixture()), Summarize(records))
	}
}

func TestTokenStatsNoSuccesses(t *testing.T) {
	records := []results.Record{failed("a", "short", 50, results.Timeout())}
	assert.Empty(t, TokenStats(records, BySizeCategory))

	_, found := Overall(records)
	assert.False(t, found)

	s := Summarize(records)
	assert.Equal(t, Summary{Total: 1, Failed: 1, Timeouts: 1}, s)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestOverall(t *testing.T) {
	g, found := Overall(fixture())
	require.True(t, found)
	assert.Equal(t, 4, g.Count)
	assert.InDelta(t, 385.0, g.Mean, 1e-9)
	assert.Equal(t, 100, g.Min)
	assert.Equal(t, 1000, g.Max)
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixture())
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 5, s.Successful)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.Timeouts)
	assert.InDelta(t, (2+4+10+5+1)/5.0, s.AvgElapsedSeconds, 1e-9)
	assert.True(t, s.HasTokens)
	assert.InDelta(t, 385.0, s.AvgTotalTokens, 1e-9)
}

func TestByModel(t *testing.T) {
	models := ByModel(fixture())
	require.Len(t, models, 2)

	a := models[0]
	assert.Equal(t, "a", a.Model)
	assert.Equal(t, 4, a.Requests)
	assert.Equal(t, 4, a.Successful)
	assert.InDelta(t, 3.0, a.ElapsedP50, 1e-9)
	// 80/2, 120/4, 900/10
	assert.InDelta(t, (40.0+30.0+90.0)/3, a.TokensPerSecMean, 1e-9)
	assert.Greater(t, a.TokensPerSecStd, 0.0)

	b := models[1]
	assert.Equal(t, "b", b.Model)
	assert.Equal(t, 3, b.Requests)
	assert.Equal(t, 1, b.Successful)
	assert.InDelta(t, 50.0, b.TokensPerSecMean, 1e-9)
	assert.Zero(t, b.TokensPerSecStd)
}

func TestRenderers(t *testing.T) {
	records := fixture()

	var buf bytes.Buffer
	overall, found := Overall(records)
	RenderTokenStats(&buf, BySizeWords, TokenStats(records, BySizeWords), overall, found)
	assert.Contains(t, buf.String(), "size_words: 50")
	assert.Contains(t, buf.String(), "Average total_tokens: 120.00")
	assert.Contains(t, buf.String(), "Total samples: 4")

	buf.Reset()
	RenderTokenStats(&buf, BySizeCategory, nil, TokenGroup{}, false)
	assert.Contains(t, buf.String(), "No data to compute averages.")

	buf.Reset()
	RenderSummary(&buf, Summarize(records))
	assert.Contains(t, buf.String(), "Total requests: 7")
	assert.Contains(t, buf.String(), "Timeouts: 1")
	assert.Contains(t, buf.String(), "Average total tokens: 385")

	buf.Reset()
	RenderSummary(&buf, Summary{})
	assert.Contains(t, buf.String(), "No results to display.")

	buf.Reset()
	RenderModels(&buf, ByModel(records))
	assert.Contains(t, buf.String(), "MODEL: a")
	assert.Contains(t, buf.String(), "Requests ok/total: 1 / 3")
}
