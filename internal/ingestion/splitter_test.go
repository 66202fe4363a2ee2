package ingestion

import (
	"strings"
	"testing"
)

func Test_Splitter_EmptyInput(t *testing.T) {
	t.Parallel()
	s := NewSplitter(1000, 100)

	if got := s.Split(""); got != nil {
		t.Errorf("empty input: want nil, got %v", got)
	}
	if got := s.Split("   \n\n  "); got != nil {
		t.Errorf("whitespace input: want nil, got %v", got)
	}
}

func Test_Splitter_ShortTextIsOneChunk(t *testing.T) {
	t.Parallel()
	s := NewSplitter(1000, 100)

	chunks := s.Split("a short transcript line")
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "a short transcript line" {
		t.Errorf("chunk content changed: %q", chunks[0])
	}
}

func Test_Splitter_RespectsChunkSize(t *testing.T) {
	t.Parallel()
	s := NewSplitter(100, 20)

	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("sentence number content here. ")
	}

	chunks := s.Split(b.String())
	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d exceeds size: %d bytes", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func Test_Splitter_PrefersParagraphBreaks(t *testing.T) {
	t.Parallel()
	s := NewSplitter(40, 0)

	text := "first paragraph stays whole.\n\nsecond paragraph stays whole."
	chunks := s.Split(text)

	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks split at the paragraph break, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "first paragraph stays whole." {
		t.Errorf("chunk 0: %q", chunks[0])
	}
	if chunks[1] != "second paragraph stays whole." {
		t.Errorf("chunk 1: %q", chunks[1])
	}
}

func Test_Splitter_OverlapCarriesText(t *testing.T) {
	t.Parallel()
	s := NewSplitter(40, 15)

	// Words only — forces the " " separator with merging.
	text := strings.Repeat("alpha bravo charlie delta echo ", 10)
	chunks := s.Split(strings.TrimSpace(text))

	if len(chunks) < 2 {
		t.Fatalf("want multiple chunks, got %d", len(chunks))
	}
	// The retained window means some prefix of each chunk repeats the tail
	// of the previous one, covering at least the first word.
	for i := 1; i < len(chunks); i++ {
		firstWord := strings.Fields(chunks[i])[0]
		found := false
		for k := len(chunks[i]); k >= len(firstWord); k-- {
			if strings.HasSuffix(chunks[i-1], chunks[i][:k]) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("chunk %d shares no overlap with its predecessor:\nprev: %q\nnext: %q",
				i, chunks[i-1], chunks[i])
		}
	}
}

func Test_Splitter_OversizedSingleWordFallsBackToCharacters(t *testing.T) {
	t.Parallel()
	s := NewSplitter(10, 0)

	chunks := s.Split(strings.Repeat("x", 35))
	if len(chunks) != 4 {
		t.Fatalf("want 4 chunks (10+10+10+5), got %d: %v", len(chunks), chunks)
	}
	if got := strings.Join(chunks, ""); got != strings.Repeat("x", 35) {
		t.Errorf("character fallback lost content: %q", got)
	}
}

func Test_Splitter_CharacterFallbackKeepsRunesIntact(t *testing.T) {
	t.Parallel()
	s := NewSplitter(10, 0)

	// 3-byte runes: cuts may not land on a rune boundary.
	chunks := s.Split(strings.Repeat("日本語", 10))
	for i, c := range chunks {
		if !strings.HasPrefix(c, "日") && !strings.HasPrefix(c, "本") && !strings.HasPrefix(c, "語") {
			t.Errorf("chunk %d starts mid-rune: %q", i, c)
		}
	}
}

func Test_Splitter_DefaultsApplied(t *testing.T) {
	t.Parallel()

	s := NewSplitter(0, -5)
	if s.chunkSize != 1000 {
		t.Errorf("chunk size default: want 1000, got %d", s.chunkSize)
	}
	if s.chunkOverlap != 0 {
		t.Errorf("negative overlap: want 0, got %d", s.chunkOverlap)
	}

	s = NewSplitter(100, 100)
	if s.chunkOverlap != 10 {
		t.Errorf("overlap >= size should clamp to size/10, got %d", s.chunkOverlap)
	}
}
