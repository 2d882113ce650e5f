package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caller = &domain.UserContext{UserID: "u1", Email: "a@b.co"}

func TestAskSendsPrefixedPrompt(t *testing.T) {
	gen := &fakeGenerator{text: "Merhaba!"}
	hist := &fakeHistory{}
	svc := NewChatService(gen, hist, "Türkçe yanıtla: ", "fallback")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	reply, err := svc.Ask(context.Background(), caller, "  Nasılsın?  ")
	require.NoError(t, err)

	assert.Equal(t, "Türkçe yanıtla: Nasılsın?", gen.prompt)
	assert.Equal(t, "Merhaba!", reply.Text)
	assert.Equal(t, at, reply.Timestamp)

	require.Len(t, hist.records, 1)
	assert.Equal(t, domain.ChatRecord{UserID: "u1", Question: "Nasılsın?", Answer: "Merhaba!", CreatedAt: at}, hist.records[0])
}

func TestAskEmptyPrefixSendsRawQuestion(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	_, err := NewChatService(gen, nil, "", "fallback").Ask(context.Background(), caller, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", gen.prompt)
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	svc := NewChatService(gen, &fakeHistory{}, "p", "fallback")

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Ask(context.Background(), caller, q)
		assert.ErrorIs(t, err, port.ErrEmptyQuestion)
	}
	assert.Zero(t, gen.calls)
}

func TestAskUsesFallbackOnEmptyCompletion(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("gemini: %w", port.ErrEmptyCompletion)}
	hist := &fakeHistory{}

	reply, err := NewChatService(gen, hist, "", "Üzgünüm, cevap oluşturamadım.").Ask(context.Background(), caller, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Üzgünüm, cevap oluşturamadım.", reply.Text)
	require.Len(t, hist.records, 1)
	assert.Equal(t, reply.Text, hist.records[0].Answer)
}

func TestAskPropagatesUpstreamFailure(t *testing.T) {
	for _, upstream := range []error{port.ErrUpstreamUnavailable, port.ErrUpstreamMalformed} {
		hist := &fakeHistory{}
		gen := &fakeGenerator{err: fmt.Errorf("gemini: %w", upstream)}

		_, err := NewChatService(gen, hist, "", "fallback").Ask(context.Background(), caller, "hi")
		assert.ErrorIs(t, err, upstream)
		assert.Empty(t, hist.records)
	}
}

func TestAskSurvivesHistoryFailure(t *testing.T) {
	gen := &fakeGenerator{text: "answer"}
	hist := &fakeHistory{err: errDown}

	reply, err := NewChatService(gen, hist, "", "fallback").Ask(context.Background(), caller, "hi")
	require.NoError(t, err)
	assert.Equal(t, "answer", reply.Text)
}
