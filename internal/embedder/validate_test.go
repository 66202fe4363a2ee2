package embedder

import (
	"log/slog"
	"testing"
)

func Test_LooksLikeChatModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o", true},
		{"llama3.1:8b", true},
		{"mistral-small", true},
		{"nomic-embed-text", false},
		{"text-embedding-3-small", false},
		{"paraphrase-multilingual-MiniLM-L12-v2", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			if got := looksLikeChatModel(tt.model); got != tt.want {
				t.Errorf("looksLikeChatModel(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func Test_Validate_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	if err := Validate(slog.Default()); err == nil {
		t.Error("openai backend without a key should fail validation")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if err := Validate(slog.Default()); err != nil {
		t.Errorf("openai backend with a key should validate, got %v", err)
	}
}

func Test_Validate_OllamaNeedsNothing(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "ollama")

	if err := Validate(slog.Default()); err != nil {
		t.Errorf("ollama backend should validate without credentials, got %v", err)
	}
}

func Test_Validate_UnknownBackend(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "watson")

	if err := Validate(slog.Default()); err == nil {
		t.Error("unknown backend should fail validation")
	}
}

func Test_DefaultDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_DIMENSIONS", "")

	if got := DefaultDimensions("ollama"); got != 768 {
		t.Errorf("ollama dimensions: want 768, got %d", got)
	}
	if got := DefaultDimensions("openai"); got != 1536 {
		t.Errorf("openai dimensions: want 1536, got %d", got)
	}

	t.Setenv("EMBEDDING_DIMENSIONS", "384")
	if got := DefaultDimensions("ollama"); got != 384 {
		t.Errorf("env override: want 384, got %d", got)
	}
}
