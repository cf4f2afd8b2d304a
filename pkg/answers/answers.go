// Package answers provides the LLM-backed fallback for screening
// questions no profile rule covers. It is off by default and only
// consulted when an API key is configured.
package answers

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/entrhq/autoapply/pkg/logging"
)

const (
	defaultModel = "gpt-4o-mini"

	// DefaultTokenBudget bounds the candidate context per call. The
	// question and options ride on top of this.
	DefaultTokenBudget = 1500

	systemPrompt = "You answer job application questions on behalf of a candidate. " +
		"Answer strictly from the candidate summary provided. " +
		"When a list of options is given, reply with exactly one option, verbatim. " +
		"When the summary does not contain the answer, reply with an empty string. " +
		"Reply with the answer only, no explanation."
)

// tokenCodec is the slice of the tiktoken API the truncator needs,
// extracted so tests can substitute a deterministic encoder.
type tokenCodec interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
	Decode(tokens []int) string
}

// Provider answers questions with a chat completion at temperature 0.
type Provider struct {
	client  openai.Client
	model   string
	baseURL string
	budget  int
	summary string
	posting string
	log     *logging.Logger

	encOnce sync.Once
	enc     tokenCodec
}

// Option configures a Provider.
type Option func(*Provider)

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = baseURL }
}

// WithCandidateSummary sets the candidate context sent with every call.
func WithCandidateSummary(summary string) Option {
	return func(p *Provider) { p.summary = summary }
}

// WithPostingText adds job posting context. Truncated together with the
// summary under the token budget.
func WithPostingText(text string) Option {
	return func(p *Provider) { p.posting = text }
}

// WithTokenBudget overrides the per-call context token budget.
func WithTokenBudget(budget int) Option {
	return func(p *Provider) { p.budget = budget }
}

// WithLogger attaches a component logger.
func WithLogger(log *logging.Logger) Option {
	return func(p *Provider) { p.log = log }
}

// NewProvider creates a provider. An empty apiKey falls back to
// OPENAI_API_KEY; with neither set it returns an error so callers leave
// the fallback disabled.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("answers: API key is required (parameter or OPENAI_API_KEY)")
	}

	p := &Provider{
		model:  defaultModel,
		budget: DefaultTokenBudget,
	}
	for _, opt := range opts {
		opt(p)
	}

	copts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if p.baseURL != "" {
		copts = append(copts, option.WithBaseURL(p.baseURL))
	}
	p.client = openai.NewClient(copts...)
	return p, nil
}

// Answer asks the model one screening question. An empty reply, or a
// reply that is not one of the given options, means "no answer" and is
// returned as an empty string without error.
func (p *Provider) Answer(ctx context.Context, question string, options []string) (string, error) {
	userPrompt := p.buildPrompt(question, options)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(0),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("answers: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", nil
	}
	if len(options) > 0 {
		answer = matchOption(answer, options)
	}
	if p.log != nil {
		p.log.Debugf("answered %q -> %q", question, answer)
	}
	return answer, nil
}

func (p *Provider) buildPrompt(question string, options []string) string {
	var b strings.Builder
	b.WriteString("Candidate summary:\n")
	b.WriteString(p.truncate(p.contextText()))
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	if len(options) > 0 {
		b.WriteString("\nOptions:\n")
		for _, opt := range options {
			b.WriteString("- ")
			b.WriteString(opt)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (p *Provider) contextText() string {
	if p.posting == "" {
		return p.summary
	}
	return p.summary + "\n\nJob posting:\n" + p.posting
}

// truncate caps the context at the token budget. When no encoding is
// available for the model it falls back to a 4-characters-per-token
// estimate.
func (p *Provider) truncate(text string) string {
	if p.budget <= 0 {
		return text
	}
	p.encOnce.Do(func() {
		if p.enc != nil {
			return
		}
		if enc, err := tiktoken.EncodingForModel(p.model); err == nil {
			p.enc = enc
		}
	})

	if p.enc == nil {
		limit := p.budget * 4
		runes := []rune(text)
		if len(runes) <= limit {
			return text
		}
		return string(runes[:limit])
	}

	tokens := p.enc.Encode(text, nil, nil)
	if len(tokens) <= p.budget {
		return text
	}
	return p.enc.Decode(tokens[:p.budget])
}

// matchOption maps a free-form reply onto the offered options,
// tolerating case differences. No match yields an empty answer.
func matchOption(answer string, options []string) string {
	lower := strings.ToLower(answer)
	for _, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == lower {
			return opt
		}
	}
	for _, opt := range options {
		o := strings.ToLower(strings.TrimSpace(opt))
		if o != "" && (strings.Contains(lower, o) || strings.Contains(o, lower)) {
			return opt
		}
	}
	return ""
}
