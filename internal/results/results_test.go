package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() Request {
	return Request{Model: "qwen/qwen3-4b", Prompt: "Écris 50 mots", MaxTokens: 100, Temperature: 0.7}
}

func TestNewSuccessInvariants(t *testing.T) {
	sent := time.Date(2026, 1, 26, 0, 44, 13, 0, time.Local)
	r := NewSuccess(sampleRequest(), sent, sent.Add(1500*time.Millisecond), 1500*time.Millisecond, "bonjour", Usage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12})

	require.NoError(t, r.Validate())
	assert.True(t, r.Status.IsSuccess())
	require.NotNil(t, r.Response)
	assert.Equal(t, "bonjour", *r.Response)
	assert.Equal(t, 13, r.PromptLengthChars)
	assert.Equal(t, 7, r.ResponseLengthChars)
	require.NotNil(t, r.TotalTokens)
	assert.Equal(t, 12, *r.TotalTokens)
	assert.Equal(t, 1.5, r.ElapsedSeconds)
}

func TestNewSuccessWithoutUsage(t *testing.T) {
	now := time.Now()
	r := NewSuccess(sampleRequest(), now, now, 0, "ok", Usage{})
	assert.Nil(t, r.PromptTokens)
	assert.Nil(t, r.CompletionTokens)
	assert.Nil(t, r.TotalTokens)
}

func TestNewFailureInvariants(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		status Status
		want   string
	}{
		{"timeout", Timeout(), "timeout"},
		{"error", Failure("connection refused"), "error: connection refused"},
		{"success is rejected", Success(), "error: missing response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewFailure(sampleRequest(), now, now.Add(time.Second), time.Second, tt.status)
			require.NoError(t, r.Validate())
			assert.Nil(t, r.Response)
			assert.Nil(t, r.TotalTokens)
			assert.Equal(t, 0, r.ResponseLengthChars)
			assert.Equal(t, tt.want, r.Status.String())
		})
	}
}

func TestRecordClampsResponseBeforeSend(t *testing.T) {
	now := time.Now()
	r := NewFailure(sampleRequest(), now, now.Add(-time.Second), 0, Timeout())
	assert.False(t, r.TimestampResponse.Before(r.TimestampSend.Time))
}

func TestValidateRejectsBrokenRecords(t *testing.T) {
	resp := "x"
	tokens := 3
	now := NewTimestamp(time.Now())

	tests := []struct {
		name string
		rec  Record
	}{
		{"failure with response", Record{Status: Timeout(), Response: &resp}},
		{"failure with tokens", Record{Status: Failure("boom"), TotalTokens: &tokens}},
		{"success without response", Record{Status: Success()}},
		{"reversed span", Record{Status: Timeout(), TimestampSend: now, TimestampResponse: NewTimestamp(now.Add(-time.Second))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.rec.Validate())
		})
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"success", Success()},
		{"timeout", Timeout()},
		{"error: HTTPConnectionPool refused", Failure("HTTPConnectionPool refused")},
		{"weird", Failure("weird")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s Status
			require.NoError(t, s.UnmarshalText([]byte(tt.in)))
			assert.Equal(t, tt.want, s)
		})
	}

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("  ")))
}

func TestStatusEmptyMessageRoundTrip(t *testing.T) {
	text, err := Failure("").MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error: ", string(text))

	var s Status
	require.NoError(t, s.UnmarshalText(text))
	assert.Equal(t, Failure(""), s)

	require.NoError(t, s.UnmarshalText([]byte("error:")))
	assert.Equal(t, Failure(""), s)
}

func TestRecordJSONShape(t *testing.T) {
	sent := time.Date(2026, 1, 26, 0, 44, 13, 123456000, time.Local)
	r := NewFailure(sampleRequest(), sent, sent.Add(2*time.Second), 2*time.Second, Failure("boom"))

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "2026-01-26T00:44:13.123456", raw["timestamp_send"])
	assert.Equal(t, "error: boom", raw["status"])
	assert.Contains(t, raw, "response")
	assert.Nil(t, raw["response"])
	assert.Nil(t, raw["total_tokens"])
	assert.NotContains(t, raw, "topic")
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-01-26T00:44:13.123456", time.Date(2026, 1, 26, 0, 44, 13, 123456000, time.Local)},
		{"2026-01-26T00:44:13", time.Date(2026, 1, 26, 0, 44, 13, 0, time.Local)},
		{"2026-01-26T00:44:13.5Z", time.Date(2026, 1, 26, 0, 44, 13, 500000000, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}

	_, err := ParseTimestamp("26.01.2026")
	assert.Error(t, err)
}

func TestCollectorSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	path := filepath.Join(dir, "benchmark_x.json")

	c := NewCollector(path)
	c.now = func() time.Time { return time.Date(2026, 1, 26, 1, 0, 0, 0, time.Local) }

	sent := time.Date(2026, 1, 26, 0, 44, 13, 0, time.Local)
	c.Add(NewSuccess(sampleRequest(), sent, sent.Add(time.Second), time.Second, "hi", Usage{1, 2, 3}).
		WithExperiment(Experiment{Topic: "rome", SizeCategory: "short", SizeWords: 50, Repetition: 1}))
	c.Add(NewFailure(sampleRequest(), sent, sent.Add(time.Second), time.Second, Timeout()))
	require.NoError(t, c.Save())

	run, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Metadata.TotalRequests)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "short", run.Results[0].SizeCategory)
	assert.True(t, run.Results[0].TimestampSend.Equal(sent))
	assert.True(t, run.Results[1].Status.IsTimeout())
	for _, r := range run.Results {
		assert.NoError(t, r.Validate())
	}
}

func TestSaveEmptyRunWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, NewCollector(path).Save())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"results": []`)
}

func TestLoadDirReportsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, "a.json"), Run{}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("{broken"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("ignored"), 0o644))

	runs, failed, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(dir, "b.json"), failed[0].Path)

	_, _, err = LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	stamp := time.Date(2026, 1, 26, 0, 44, 13, 0, time.Local)
	assert.Equal(t, "benchmark_20260126_004413.json", FileName("", stamp, false))
	assert.Equal(t, "benchmark_qwen_qwen3-4b_20260126_004413.json", FileName("qwen/qwen3-4b", stamp, false))
	assert.Equal(t, "benchmark_TEST_my_model_20260126_004413.json", FileName("my model", stamp, true))
}
