package answers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// newTestProvider wires a provider to a stub completions endpoint that
// replies with a fixed answer and records the request.
func newTestProvider(t *testing.T, reply string, captured *capturedRequest) *Provider {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), "unexpected path %s", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"id": "cmpl-1", "object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]
		}`, reply)
	}))
	t.Cleanup(srv.Close)

	// An unmapped model name keeps the token truncator on its offline
	// fallback path.
	p, err := NewProvider("test-key",
		WithBaseURL(srv.URL),
		WithModel("test-model"),
		WithCandidateSummary("Name: Ada Lovelace\nNotice period: 2 weeks"),
	)
	require.NoError(t, err)
	return p
}

func TestAnswerFreeText(t *testing.T) {
	var req capturedRequest
	p := newTestProvider(t, "2 weeks", &req)

	answer, err := p.Answer(context.Background(), "What is your notice period?", nil)
	require.NoError(t, err)
	assert.Equal(t, "2 weeks", answer)

	assert.Equal(t, "test-model", req.Model)
	assert.Zero(t, req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Ada Lovelace")
	assert.Contains(t, req.Messages[1].Content, "What is your notice period?")
}

func TestAnswerOptionsAreOffered(t *testing.T) {
	var req capturedRequest
	p := newTestProvider(t, "LinkedIn", &req)

	answer, err := p.Answer(context.Background(), "How did you hear about us?", []string{"LinkedIn", "Referral"})
	require.NoError(t, err)
	assert.Equal(t, "LinkedIn", answer)
	assert.Contains(t, req.Messages[1].Content, "- LinkedIn")
	assert.Contains(t, req.Messages[1].Content, "- Referral")
}

func TestAnswerNormalizesToOption(t *testing.T) {
	p := newTestProvider(t, "linkedin", nil)

	answer, err := p.Answer(context.Background(), "Source?", []string{"LinkedIn", "Referral"})
	require.NoError(t, err)
	assert.Equal(t, "LinkedIn", answer, "reply mapped onto the verbatim option")
}

func TestAnswerOffListReplyIsEmpty(t *testing.T) {
	p := newTestProvider(t, "Facebook", nil)

	answer, err := p.Answer(context.Background(), "Source?", []string{"LinkedIn", "Referral"})
	require.NoError(t, err)
	assert.Equal(t, "", answer)
}

func TestAnswerEmptyReply(t *testing.T) {
	p := newTestProvider(t, "", nil)

	answer, err := p.Answer(context.Background(), "Unknown?", nil)
	require.NoError(t, err)
	assert.Equal(t, "", answer)
}

func TestNewProviderRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewProvider("")
	assert.Error(t, err)
}

// fakeCodec tokenizes by whitespace for deterministic budget tests.
type fakeCodec struct{ words []string }

func (f *fakeCodec) Encode(text string, _, _ []string) []int {
	f.words = strings.Fields(text)
	tokens := make([]int, len(f.words))
	for i := range tokens {
		tokens[i] = i
	}
	return tokens
}

func (f *fakeCodec) Decode(tokens []int) string {
	return strings.Join(f.words[:len(tokens)], " ")
}

func TestTruncateHonorsBudget(t *testing.T) {
	p := &Provider{model: "test-model", budget: 3, enc: &fakeCodec{}}

	assert.Equal(t, "one two three", p.truncate("one two three four five"))
	assert.Equal(t, "one two", p.truncate("one two"), "short text untouched")
}

func TestTruncateFallbackWithoutEncoding(t *testing.T) {
	p := &Provider{model: "no-such-model", budget: 2}

	long := strings.Repeat("x", 100)
	got := p.truncate(long)
	assert.Len(t, got, 8, "4 characters per token estimate")

	assert.Equal(t, "short", p.truncate("short"))
}

func TestMatchOption(t *testing.T) {
	options := []string{"Yes, I am authorized", "No"}

	tests := []struct {
		reply string
		want  string
	}{
		{"Yes, I am authorized", "Yes, I am authorized"},
		{"yes, i am authorized", "Yes, I am authorized"},
		{"No", "No"},
		{"Maybe", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchOption(tt.reply, options), "reply %q", tt.reply)
	}
}
