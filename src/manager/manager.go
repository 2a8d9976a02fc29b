// Package manager orchestrates a chat turn: validation, context assembly, token
// budgeting, dispatch to a provider and recording the outcome in the conversation.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/elee1766/lenschat/src/assembler"
	"github.com/elee1766/lenschat/src/conversation"
	"github.com/elee1766/lenschat/src/imagestore"
	"github.com/elee1766/lenschat/src/modes"
	"github.com/elee1766/lenschat/src/providers"
	"github.com/elee1766/lenschat/src/tokens"
)

var (
	// ErrNoModel indicates no model is selected
	ErrNoModel = assembler.ErrNoModel

	// ErrCredentials indicates the provider has no verified API key
	ErrCredentials = errors.New("provider credentials missing or unverified")

	// ErrVisionUnsupported indicates images were attached for a model that cannot see them
	ErrVisionUnsupported = errors.New("model does not support images")

	// ErrEmptyMessage indicates a send with neither text nor images
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInFlight indicates the conversation already has a request outstanding
	ErrSendInFlight = errors.New("a message is already being sent in this conversation")

	// ErrUnknownMode indicates the mode id is not in the catalog
	ErrUnknownMode = errors.New("unknown mode")
)

// Saver persists a conversation after it changes.
type Saver interface {
	SaveConversation(ctx context.Context, conv *conversation.Conversation) error
}

// Config holds the collaborators of a Manager. Conversations, Images, Assembler,
// Adapters, Client and Credentials are required.
type Config struct {
	Conversations *conversation.Store
	Images        *imagestore.Store
	Assembler     *assembler.Assembler
	Budget        *tokens.Budget
	Adapters      *providers.Registry
	Client        *providers.Client
	Credentials   aisdk.CredentialSource
	Modes         *modes.Catalog

	// Saver is called after every completed exchange. Failures are logged.
	Saver Saver
	// OnModelUsed is called after a successful exchange with the updated model.
	OnModelUsed func(model *aisdk.ModelConfig)

	Model  *aisdk.ModelConfig
	Mode   string
	Logger *slog.Logger
}

// Manager is a chat session: the current model, mode and pending images, plus
// the stores they act on.
type Manager struct {
	conversations *conversation.Store
	images        *imagestore.Store
	assembler     *assembler.Assembler
	budget        *tokens.Budget
	adapters      *providers.Registry
	client        *providers.Client
	credentials   aisdk.CredentialSource
	modes         *modes.Catalog
	saver         Saver
	onModelUsed   func(*aisdk.ModelConfig)
	logger        *slog.Logger

	mu       sync.Mutex
	model    *aisdk.ModelConfig
	mode     string
	pending  []string
	inFlight map[string]struct{}
}

// New creates a manager from cfg.
func New(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Budget == nil {
		cfg.Budget = tokens.NewBudget(nil, logger)
	}
	if cfg.Modes == nil {
		cfg.Modes = modes.NewCatalog()
	}
	if cfg.Mode == "" {
		cfg.Mode = modes.DefaultModeID
	}
	return &Manager{
		conversations: cfg.Conversations,
		images:        cfg.Images,
		assembler:     cfg.Assembler,
		budget:        cfg.Budget,
		adapters:      cfg.Adapters,
		client:        cfg.Client,
		credentials:   cfg.Credentials,
		modes:         cfg.Modes,
		saver:         cfg.Saver,
		onModelUsed:   cfg.OnModelUsed,
		logger:        logger.With("component", "ai_manager"),
		model:         cfg.Model,
		mode:          cfg.Mode,
		inFlight:      make(map[string]struct{}),
	}
}

// Model returns the selected model.
func (m *Manager) Model() *aisdk.ModelConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel selects the model used by later sends.
func (m *Manager) SetModel(model *aisdk.ModelConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// Mode returns the selected mode id.
func (m *Manager) Mode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// SetMode selects the mode used by later sends.
func (m *Manager) SetMode(id string) error {
	if !m.modes.Has(id) {
		return fmt.Errorf("%w: %q", ErrUnknownMode, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = id
	return nil
}

// SendRequest is one user turn.
type SendRequest struct {
	Text string
	// ImageURIs are temp references, data URIs or vault paths. When empty the
	// pending images are sent.
	ImageURIs []string
}

// Send runs a full turn against the current conversation and returns the
// assistant reply. On provider failure the reply is replaced by an error
// message recorded in the conversation and the error is also returned.
func (m *Manager) Send(ctx context.Context, req SendRequest) (*conversation.Message, error) {
	conv := m.conversations.Current()
	return m.SendTo(ctx, conv, req)
}

// SendTo runs a turn against conv.
func (m *Manager) SendTo(ctx context.Context, conv *conversation.Conversation, req SendRequest) (*conversation.Message, error) {
	m.mu.Lock()
	model, mode := m.model, m.mode
	usePending := len(req.ImageURIs) == 0
	if usePending {
		for _, id := range m.pending {
			req.ImageURIs = append(req.ImageURIs, imagestore.Ref(id))
		}
	}
	m.mu.Unlock()

	logger := m.logger.With("conversation_id", conv.ID)

	adapter, creds, err := m.validate(model, req)
	if err != nil {
		logger.Warn("send rejected", "error", err)
		return nil, err
	}

	if !m.acquire(conv.ID) {
		return nil, ErrSendInFlight
	}
	defer m.release(conv.ID)

	logger = logger.With("provider", model.ProviderID, "model", model.ModelID)

	messages, err := m.assembler.BuildContextMessages(ctx, assembler.Request{
		Conversation:    conv,
		Text:            req.Text,
		ImageURIs:       req.ImageURIs,
		Model:           model,
		Mode:            mode,
		ApplyModePrompt: true,
	})
	if err != nil {
		return nil, err
	}

	user := conversation.NewMessage(aisdk.RoleUser, userContent(req.Text, req.ImageURIs))
	conv.AddMessage(user)
	if usePending {
		m.mu.Lock()
		m.pending = nil
		m.mu.Unlock()
	}

	typing := conversation.NewTypingMessage()
	conv.AddMessage(typing)

	maxTokens := m.budget.CalculateSafeMaxTokens(ctx, messages, model)
	logger.Debug("dispatching", "messages", len(messages), "images", aisdk.CountImages(messages), "max_tokens", maxTokens)

	start := time.Now()
	text, err := m.client.Complete(ctx, adapter, messages, model, creds, providers.Options{MaxTokens: maxTokens})
	conv.RemoveTyping()

	var reply *conversation.Message
	if err != nil {
		logger.Error("send failed", "error", err, "duration", time.Since(start))
		reply = conversation.NewErrorMessage(err)
	} else {
		logger.Info("reply received", "duration", time.Since(start), "chars", len(text))
		reply = conversation.NewMessage(aisdk.RoleAssistant, text)
		m.markUsed(model)
	}
	conv.AddMessage(reply)
	m.save(ctx, conv)

	return reply, err
}

// validate checks everything that would make the request fail before it is sent.
func (m *Manager) validate(model *aisdk.ModelConfig, req SendRequest) (providers.Adapter, *aisdk.Credentials, error) {
	if model == nil {
		return nil, nil, ErrNoModel
	}
	if strings.TrimSpace(req.Text) == "" && len(req.ImageURIs) == 0 {
		return nil, nil, ErrEmptyMessage
	}
	adapter, err := m.adapters.Get(model.ProviderID)
	if err != nil {
		return nil, nil, err
	}
	creds := m.credentials.GetCredentials(model.ProviderID)
	if !creds.Usable() {
		return nil, nil, fmt.Errorf("%w for %s", ErrCredentials, model.ProviderID)
	}
	if len(req.ImageURIs) > 0 {
		if !model.IsVisionCapable {
			return nil, nil, fmt.Errorf("%w: %s", ErrVisionUnsupported, model.ModelID)
		}
		if !adapter.SupportsVision() {
			return nil, nil, fmt.Errorf("%w: %w", ErrVisionUnsupported,
				&providers.UnsupportedError{Provider: adapter.ID(), Operation: "image input"})
		}
	}
	return adapter, creds, nil
}

// SendText sends a single text prompt outside any conversation and returns the reply.
func (m *Manager) SendText(ctx context.Context, systemPrompt, prompt string) (string, error) {
	model := m.Model()
	adapter, creds, err := m.validate(model, SendRequest{Text: prompt})
	if err != nil {
		return "", err
	}
	messages := providers.TextMessages(systemPrompt, prompt)
	maxTokens := m.budget.CalculateSafeMaxTokens(ctx, messages, model)

	text, err := m.client.Complete(ctx, adapter, messages, model, creds, providers.Options{MaxTokens: maxTokens})
	if err != nil {
		return "", err
	}
	m.markUsed(model)
	return text, nil
}

// userContent is the committed form of a user turn: the text followed by one
// markdown image reference per attachment.
func userContent(text string, imageURIs []string) string {
	var b strings.Builder
	b.WriteString(text)
	for _, uri := range imageURIs {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "![image](%s)", uri)
	}
	return b.String()
}

func (m *Manager) acquire(convID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[convID]; busy {
		return false
	}
	m.inFlight[convID] = struct{}{}
	return true
}

func (m *Manager) release(convID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inFlight, convID)
}

func (m *Manager) markUsed(model *aisdk.ModelConfig) {
	m.mu.Lock()
	model.LastUsed = time.Now()
	m.mu.Unlock()
	if m.onModelUsed != nil {
		m.onModelUsed(model)
	}
}

func (m *Manager) save(ctx context.Context, conv *conversation.Conversation) {
	if m.saver == nil {
		return
	}
	if err := m.saver.SaveConversation(ctx, conv); err != nil {
		m.logger.Warn("failed to save conversation", "conversation_id", conv.ID, "error", err)
	}
}
