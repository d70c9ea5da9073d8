// internal/lmstudio/manager.go
// Package: lmstudio
package lmstudio

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Model is one entry of the served model list.
type Model struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ManagerConfig holds the timeouts of the control surface.
type ManagerConfig struct {
	// StatusTimeout bounds the reachability check.
	StatusTimeout time.Duration
	// ListTimeout bounds a model listing.
	ListTimeout time.Duration
	// LoadTimeout bounds the throwaway completion that forces a load.
	LoadTimeout time.Duration
	// Settle is how long to wait after the load request before re-querying.
	// Zero means the default; use a negative value for no wait.
	Settle time.Duration
}

// DefaultManagerConfig returns the stock timeouts.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		StatusTimeout: 5 * time.Second,
		ListTimeout:   10 * time.Second,
		LoadTimeout:   60 * time.Second,
		Settle:        2 * time.Second,
	}
}

// Manager is a thin control surface over the LM Studio endpoints. The server
// has no explicit load or unload API: loading is triggered by a one-token
// completion, and the resident model is assumed to be the first entry of the
// model list. Both are conventions of the backend, not guarantees.
type Manager struct {
	client *Client
	cfg    ManagerConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewManager returns a manager that talks through client. Zero fields of cfg
// take their DefaultManagerConfig values.
func NewManager(client *Client, cfg ManagerConfig) *Manager {
	def := DefaultManagerConfig()
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = def.StatusTimeout
	}
	if cfg.ListTimeout <= 0 {
		cfg.ListTimeout = def.ListTimeout
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = def.LoadTimeout
	}
	switch {
	case cfg.Settle < 0:
		cfg.Settle = 0
	case cfg.Settle == 0:
		cfg.Settle = def.Settle
	}
	return &Manager{client: client, cfg: cfg, sleep: sleepContext}
}

// CheckServer reports whether the model-listing endpoint answers 200. A
// connection failure is logged and reported as false.
func (m *Manager) CheckServer(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StatusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.client.APIBase+"/models", nil)
	if err != nil {
		m.client.logger.Error("cannot build status request", "url", m.client.APIBase, "error", err)
		return false
	}
	resp, err := m.client.httpClient.Do(req)
	if err != nil {
		m.client.logger.Error("cannot connect to LM Studio", "url", m.client.APIBase, "error", err)
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the served models, or an empty slice on failure.
func (m *Manager) ListModels(ctx context.Context) []Model {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ListTimeout)
	defer cancel()

	list, err := m.client.api.ListModels(ctx)
	if err != nil {
		m.client.logger.Error("error listing models", "error", err)
		return []Model{}
	}
	out := make([]Model, 0, len(list.Models))
	for _, mod := range list.Models {
		out = append(out, Model{ID: mod.ID, Created: mod.CreatedAt, OwnedBy: mod.OwnedBy})
	}
	return out
}

// LoadedModel returns the identifier of the first listed model, which LM
// Studio reports for the model resident in memory.
func (m *Manager) LoadedModel(ctx context.Context) (string, bool) {
	models := m.ListModels(ctx)
	if len(models) == 0 {
		return "", false
	}
	return models[0].ID, true
}

// LoadModel forces the backend to load id with a minimal completion, waits for
// the settle period and reports whether any model is now listed. It does not
// verify that the listed model is id.
func (m *Manager) LoadModel(ctx context.Context, id string) bool {
	log := m.client.logger.With("model", id)
	log.Info("attempting to load model")

	loadCtx, cancel := context.WithTimeout(ctx, m.cfg.LoadTimeout)
	defer cancel()

	_, err := m.client.api.CreateChatCompletion(loadCtx, openai.ChatCompletionRequest{
		Model:       id,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "test"}},
		MaxTokens:   1,
		Temperature: 0.1,
	})
	if err != nil {
		if isTimeout(loadCtx, err) {
			log.Error("timeout loading model", "timeout", m.cfg.LoadTimeout)
		} else {
			log.Error("error loading model", "error", err)
		}
		return false
	}

	if err := m.sleep(ctx, m.cfg.Settle); err != nil {
		return false
	}

	loaded, ok := m.LoadedModel(ctx)
	if !ok {
		log.Warn("the model may not have loaded correctly")
		return false
	}
	log.Info("model loaded", "loaded", loaded)
	return true
}

// UnloadModel always reports failure: LM Studio exposes no unload endpoint and
// unloading has to be done from its UI.
func (m *Manager) UnloadModel(context.Context) bool {
	m.client.logger.Warn("LM Studio does not provide an API endpoint to unload models; unload it from the LM Studio interface")
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
