// internal/results/record.go
package results

import (
	"errors"
	"math"
	"time"
	"unicode/utf8"
)

// Request holds the parameters of one chat-completion request.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Usage is the token accounting reported by the server.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Record is one row per issued prompt. It is created through NewSuccess or
// NewFailure and not mutated afterwards, apart from the experiment metadata
// the runner attaches before the record is collected.
type Record struct {
	TimestampSend       Timestamp `json:"timestamp_send"`
	TimestampResponse   Timestamp `json:"timestamp_response"`
	ElapsedSeconds      float64   `json:"elapsed_time_seconds"`
	Prompt              string    `json:"prompt"`
	Response            *string   `json:"response"`
	PromptLengthChars   int       `json:"prompt_length_chars"`
	ResponseLengthChars int       `json:"response_length_chars"`
	PromptTokens        *int      `json:"prompt_tokens"`
	CompletionTokens    *int      `json:"completion_tokens"`
	TotalTokens         *int      `json:"total_tokens"`
	MaxTokensRequested  int       `json:"max_tokens_requested"`
	Temperature         float64   `json:"temperature"`
	Model               string    `json:"model"`
	Status              Status    `json:"status"`

	// Experiment metadata, attached by the caller.
	Category     string `json:"category,omitempty"`
	Topic        string `json:"topic,omitempty"`
	SizeCategory string `json:"size_category,omitempty"`
	SizeWords    int    `json:"size_words,omitempty"`
	Repetition   int    `json:"repetition,omitempty"`
}

// Experiment is the metadata attached to a record by the experiment runner.
type Experiment struct {
	Category     string
	Topic        string
	SizeCategory string
	SizeWords    int
	Repetition   int
}

// NewSuccess builds a success record. A usage of all zeros is treated as not
// reported and stored as absent counters.
func NewSuccess(req Request, sent, received time.Time, elapsed time.Duration, response string, usage Usage) Record {
	r := newRecord(req, sent, received, elapsed, Success())
	r.Response = &response
	r.ResponseLengthChars = utf8.RuneCountInString(response)
	if usage != (Usage{}) {
		r.PromptTokens = intPtr(usage.PromptTokens)
		r.CompletionTokens = intPtr(usage.CompletionTokens)
		r.TotalTokens = intPtr(usage.TotalTokens)
	}
	return r
}

// NewFailure builds a timeout or error record. Response and token counters
// stay absent.
func NewFailure(req Request, sent, received time.Time, elapsed time.Duration, status Status) Record {
	if status.IsSuccess() {
		status = Failure("missing response")
	}
	return newRecord(req, sent, received, elapsed, status)
}

func newRecord(req Request, sent, received time.Time, elapsed time.Duration, status Status) Record {
	if received.Before(sent) {
		received = sent
	}
	return Record{
		TimestampSend:      NewTimestamp(sent),
		TimestampResponse:  NewTimestamp(received),
		ElapsedSeconds:     roundMillis(elapsed),
		Prompt:             req.Prompt,
		PromptLengthChars:  utf8.RuneCountInString(req.Prompt),
		MaxTokensRequested: req.MaxTokens,
		Temperature:        req.Temperature,
		Model:              req.Model,
		Status:             status,
	}
}

// WithExperiment returns a copy of r carrying the experiment metadata.
func (r Record) WithExperiment(e Experiment) Record {
	r.Category = e.Category
	r.Topic = e.Topic
	r.SizeCategory = e.SizeCategory
	r.SizeWords = e.SizeWords
	r.Repetition = e.Repetition
	return r
}

// Elapsed returns ElapsedSeconds as a duration.
func (r Record) Elapsed() time.Duration {
	return time.Duration(r.ElapsedSeconds * float64(time.Second))
}

// HasSpan reports whether both send and response timestamps are present.
func (r Record) HasSpan() bool {
	return !r.TimestampSend.IsZero() && !r.TimestampResponse.IsZero()
}

var (
	errSpan            = errors.New("timestamp_response precedes timestamp_send")
	errFailureResponse = errors.New("non-success record carries a response")
	errFailureTokens   = errors.New("non-success record carries token counts")
	errSuccessResponse = errors.New("success record has no response")
)

// Validate checks the record invariants. It is used on records read back from
// disk, which were not necessarily produced by this tool.
func (r Record) Validate() error {
	if r.HasSpan() && r.TimestampResponse.Before(r.TimestampSend.Time) {
		return errSpan
	}
	if r.Status.IsSuccess() {
		if r.Response == nil {
			return errSuccessResponse
		}
		return nil
	}
	if r.Response != nil {
		return errFailureResponse
	}
	if r.TotalTokens != nil {
		return errFailureTokens
	}
	return nil
}

func roundMillis(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

func intPtr(v int) *int { return &v }
