package corpus

import (
	"testing"

	"github.com/rkalinin/corpora/internal/model"
)

func passage(id, source, text string) model.Passage {
	return model.Passage{ID: id, Source: source, TextOriginal: text, TextEnglish: text}
}

func TestIndex_AddAndLen(t *testing.T) {
	x := NewIndex()
	if x.Len() != 0 {
		t.Errorf("new index len = %d", x.Len())
	}

	x.Add("s1", []model.Passage{passage("s1:1", "s1", "a"), passage("s1:2", "s1", "b")})
	if x.Len() != 2 {
		t.Errorf("len = %d, want 2", x.Len())
	}
}

func TestIndex_LastWriterWins(t *testing.T) {
	x := NewIndex()
	x.Add("s1", []model.Passage{passage("shared:1", "s1", "A")})
	x.Add("s2", []model.Passage{passage("shared:1", "s2", "B")})

	result := x.Finalize()
	if len(result.Passages) != 1 {
		t.Fatalf("passages = %d, want 1", len(result.Passages))
	}
	if result.Passages[0].TextOriginal != "B" {
		t.Errorf("kept %q, want the later write", result.Passages[0].TextOriginal)
	}
	if result.Summary.PerSource["s2"] != 1 || result.Summary.PerSource["s1"] != 0 {
		t.Errorf("per-source counts = %v", result.Summary.PerSource)
	}
}

func TestIndex_FinalizeSortsByID(t *testing.T) {
	x := NewIndex()
	x.Add("s", []model.Passage{
		passage("s:3", "s", "c"),
		passage("s:1", "s", "a"),
		passage("s:2", "s", "b"),
	})

	result := x.Finalize()
	want := []string{"s:1", "s:2", "s:3"}
	for i, id := range want {
		if result.Passages[i].ID != id {
			t.Errorf("passages[%d].ID = %s, want %s", i, result.Passages[i].ID, id)
		}
	}
}

func TestIndex_FinalizeIdempotent(t *testing.T) {
	x := NewIndex()
	x.Add("s", []model.Passage{passage("s:1", "s", "a")})

	first := x.Finalize()
	second := x.Finalize()
	if first != second {
		t.Error("repeated Finalize without Add returned a different result")
	}
	if first.Summary.GeneratedAt != second.Summary.GeneratedAt {
		t.Error("timestamps differ")
	}
}

func TestIndex_AddInvalidatesFinalize(t *testing.T) {
	x := NewIndex()
	x.Add("s", []model.Passage{passage("s:1", "s", "a")})

	first := x.Finalize()
	x.Add("s", []model.Passage{passage("s:2", "s", "b")})
	second := x.Finalize()

	if first == second {
		t.Error("Finalize result not invalidated by Add")
	}
	if second.Summary.Total != 2 {
		t.Errorf("total = %d, want 2", second.Summary.Total)
	}
	if second.Summary.RunID != first.Summary.RunID {
		t.Error("run ID changed within one index")
	}
}

func TestIndex_Summary(t *testing.T) {
	x := NewIndex()
	x.Add("s1", []model.Passage{passage("s1:1", "s1", "a"), passage("s1:2", "s1", "b")})
	x.Add("s2", []model.Passage{passage("s2:1", "s2", "c")})

	s := x.Finalize().Summary
	if s.Total != 3 {
		t.Errorf("total = %d", s.Total)
	}
	if s.PerSource["s1"] != 2 || s.PerSource["s2"] != 1 {
		t.Errorf("per-source = %v", s.PerSource)
	}
	if s.RunID == "" {
		t.Error("empty run ID")
	}
	if s.GeneratedAt.IsZero() {
		t.Error("zero timestamp")
	}
}
