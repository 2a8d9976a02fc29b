package tokens

import (
	"context"
	"strings"
	"testing"

	"github.com/elee1766/lenschat/src/aisdk"
	"github.com/stretchr/testify/assert"
)

func TestEstimateText(t *testing.T) {
	assert.Equal(t, 0, EstimateText(""))
	assert.Equal(t, 1, EstimateText("abc"))
	assert.Equal(t, 1, EstimateText("abcd"))
	assert.Equal(t, 3, EstimateText("Summarize"))
	assert.Equal(t, 2, EstimateText("总结这张图片内容"))
	assert.Equal(t, 1, EstimateText("café"))
}

func TestEstimateTokens(t *testing.T) {
	img := aisdk.ImageContent{MediaType: "image/png", Data: "AAAA"}
	msgs := []*aisdk.Message{
		aisdk.NewTextMessage(aisdk.RoleSystem, "12345678"),
		aisdk.NewMultimodalMessage(aisdk.RoleUser, "1234", []aisdk.ImageContent{img, img}),
		nil,
	}
	assert.Equal(t, 2+1+2*ImageTokens+Overhead, EstimateTokens(msgs))
	assert.Equal(t, Overhead, EstimateTokens(nil))
}

func TestCalculateSafeMaxTokens(t *testing.T) {
	small := []*aisdk.Message{aisdk.NewTextMessage(aisdk.RoleUser, "hi")}
	huge := []*aisdk.Message{aisdk.NewTextMessage(aisdk.RoleUser, strings.Repeat("x", 4*20000))}

	tests := []struct {
		name      string
		messages  []*aisdk.Message
		window    int
		maxTokens int
		want      int
	}{
		{"user limit wins when window is roomy", small, 128000, 4096, 4096},
		{"window lowers the limit", small, 4000, 4096, 3200 - 101},
		{"minimum when input fills the window", huge, 16000, 4096, MinOutputTokens},
		{"never above a small user limit", huge, 16000, 256, 256},
		{"no user limit", small, 10000, 0, 8000 - 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateSafeMaxTokens(tt.messages, tt.window, tt.maxTokens))
		})
	}
}

func TestBudgetInfersUnknownClaudeWindow(t *testing.T) {
	b := NewBudget(nil, nil)
	msgs := []*aisdk.Message{aisdk.NewTextMessage(aisdk.RoleUser, "hello")}
	model := &aisdk.ModelConfig{
		ProviderID: "custom",
		ModelID:    "acme-claude-distill",
		Settings:   aisdk.ModelSettings{MaxTokens: 1_000_000},
	}

	got := b.CalculateSafeMaxTokens(context.Background(), msgs, model)
	assert.Equal(t, int(200000*0.8)-EstimateTokens(msgs), got)
}
