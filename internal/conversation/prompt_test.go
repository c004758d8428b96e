package conversation

import (
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/stretchr/testify/assert"
)

func TestMapRole(t *testing.T) {
	tests := []struct {
		role domain.SenderRole
		want string
	}{
		{domain.SenderExternalUser, llm.RoleUser},
		{domain.SenderVendor, llm.RoleUser},
		{domain.SenderAdmin, llm.RoleUser},
		{domain.SenderChatbot, llm.RoleAssistant},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, MapRole(tt.role))
		})
	}

	assert.Panics(t, func() { MapRole("robot") })
	assert.Panics(t, func() { MapRole("") })
}

func TestFinalQuestion(t *testing.T) {
	assert.Equal(t, "What is Foo?", FinalQuestion("What is Foo?", ""))
	assert.Equal(t, "Context:\nFoo is bar.\n\nQuestion:\nWhat is Foo?", FinalQuestion("What is Foo?", "Foo is bar."))
}

func TestTrimHistory(t *testing.T) {
	history := []domain.Message{
		{Seq: 1, Content: "one two three", TokenCount: 3},
		{Seq: 2, Content: "four five", TokenCount: 2},
		{Seq: 3, Content: "six", TokenCount: 1},
		{Seq: 4, Content: "seven eight"},
	}

	tests := []struct {
		name    string
		budget  int
		wantSeq []int64
	}{
		{name: "unbounded", budget: 0, wantSeq: []int64{1, 2, 3, 4}},
		{name: "everything fits", budget: 8, wantSeq: []int64{1, 2, 3, 4}},
		{name: "drops oldest", budget: 5, wantSeq: []int64{2, 3, 4}},
		{name: "counts words when unset", budget: 2, wantSeq: []int64{4}},
		{name: "nothing fits", budget: 1, wantSeq: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimHistory(history, tt.budget)
			seqs := make([]int64, 0, len(got))
			for _, m := range got {
				seqs = append(seqs, m.Seq)
			}
			assert.Equal(t, tt.wantSeq, seqs)
		})
	}
}

func TestAssemblePrompt(t *testing.T) {
	history := []domain.Message{
		{SenderRole: domain.SenderExternalUser, Content: "Hi"},
		{SenderRole: domain.SenderChatbot, Content: "Hello!"},
		{SenderRole: domain.SenderVendor, Content: "Check stock"},
	}

	got := AssemblePrompt("Be brief.", history, "And then?", "Stock is 4.", 0)

	want := []llm.Message{
		{Role: llm.RoleSystem, Content: "Be brief."},
		{Role: llm.RoleUser, Content: "Hi"},
		{Role: llm.RoleAssistant, Content: "Hello!"},
		{Role: llm.RoleUser, Content: "Check stock"},
		{Role: llm.RoleUser, Content: "Context:\nStock is 4.\n\nQuestion:\nAnd then?"},
	}
	assert.Equal(t, want, got)
}
