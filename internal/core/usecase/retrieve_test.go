package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/scoring"
)

func TestSimilaritySearchRanksByLexicalOverlap(t *testing.T) {
	chunks := newChunkStoreFake()
	chunks.seed("proj-1", "the quick brown fox", "lazy dogs sleep", "quick fox jumps")
	uc := NewRetrieveUseCase(chunks, &projectStoreFake{}, scoring.NewJaccard(), domain.RetrievalLimits{})

	results, err := uc.SimilaritySearch(context.Background(), "quick fox", "proj-1", 5)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Content != "quick fox jumps" || results[1].Content != "the quick brown fox" {
		t.Fatalf("unexpected ranking: %q, %q", results[0].Content, results[1].Content)
	}
	if results[2].Content != "lazy dogs sleep" || results[2].Similarity != 0 {
		t.Fatalf("expected zero-overlap chunk last, got %+v", results[2])
	}
	if results[0].Metadata.Source != "proj-1.txt" {
		t.Fatalf("expected source metadata to be surfaced, got %+v", results[0].Metadata)
	}
}

func TestSimilaritySearchCapsCandidatesAndTopK(t *testing.T) {
	chunks := newChunkStoreFake()
	contents := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		contents = append(contents, fmt.Sprintf("chunk %d", i))
	}
	chunks.seed("proj-1", contents...)
	uc := NewRetrieveUseCase(chunks, &projectStoreFake{}, scoring.NewJaccard(), domain.RetrievalLimits{})

	results, err := uc.SimilaritySearch(context.Background(), "chunk", "proj-1", 7)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d", len(results))
	}
	if chunks.listCalls[0] != DefaultCandidateLimit {
		t.Fatalf("expected candidate limit %d, got %d", DefaultCandidateLimit, chunks.listCalls[0])
	}

	results, err = uc.SimilaritySearch(context.Background(), "chunk", "proj-1", 0)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(results) != DefaultTopK {
		t.Fatalf("expected default top k %d, got %d", DefaultTopK, len(results))
	}
}

func TestSimilaritySearchKeepsCandidateOrderOnTies(t *testing.T) {
	chunks := newChunkStoreFake()
	chunks.seed("proj-1", "alpha", "beta", "gamma", "delta")
	scorer := fixedScorer{"alpha": 0.2, "beta": 0.5, "gamma": 0.2, "delta": 0.5}
	uc := NewRetrieveUseCase(chunks, &projectStoreFake{}, scorer, domain.RetrievalLimits{})

	for run := 0; run < 5; run++ {
		results, err := uc.SimilaritySearch(context.Background(), "q", "proj-1", 4)
		if err != nil {
			t.Fatalf("SimilaritySearch() error = %v", err)
		}
		got := []string{results[0].Content, results[1].Content, results[2].Content, results[3].Content}
		want := []string{"beta", "delta", "alpha", "gamma"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("run %d: expected %v, got %v", run, want, got)
			}
		}
	}
}

func TestSimilaritySearchUnknownProjectIsEmpty(t *testing.T) {
	uc := NewRetrieveUseCase(newChunkStoreFake(), &projectStoreFake{}, scoring.NewJaccard(), domain.RetrievalLimits{})
	results, err := uc.SimilaritySearch(context.Background(), "anything", "missing", 5)
	if err != nil {
		t.Fatalf("SimilaritySearch() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}

func TestSimilaritySearchPropagatesStoreError(t *testing.T) {
	chunks := newChunkStoreFake()
	chunks.listErr = errors.New("connection reset")
	uc := NewRetrieveUseCase(chunks, &projectStoreFake{}, scoring.NewJaccard(), domain.RetrievalLimits{})
	if _, err := uc.SimilaritySearch(context.Background(), "q", "proj-1", 5); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSearchAllMergesPerProjectResults(t *testing.T) {
	chunks := newChunkStoreFake()
	projects := &projectStoreFake{projects: []domain.Project{
		{ID: "p1", OwnerID: "user-1"},
		{ID: "p2", OwnerID: "user-1"},
		{ID: "p3", OwnerID: "user-1"},
		{ID: "other", OwnerID: "user-2"},
	}}
	scorer := fixedScorer{}
	scores := map[string][]float64{
		"p1": {0.9, 0.8, 0.7, 0.65},
		"p2": {0.6, 0.5, 0.4},
		"p3": {0.85, 0.3, 0.2},
	}
	for _, pid := range []string{"p1", "p2", "p3"} {
		contents := make([]string, 0, len(scores[pid]))
		for i, s := range scores[pid] {
			content := fmt.Sprintf("%s-%d", pid, i)
			scorer[content] = s
			contents = append(contents, content)
		}
		chunks.seed(pid, contents...)
	}
	chunks.seed("other", "other-0")
	scorer["other-0"] = 1

	uc := NewRetrieveUseCase(chunks, projects, scorer, domain.RetrievalLimits{PerProjectLimit: 3, GlobalCap: 5})
	results, err := uc.SearchAll(context.Background(), "q", "user-1")
	if err != nil {
		t.Fatalf("SearchAll() error = %v", err)
	}

	want := []string{"p1-0", "p3-0", "p1-1", "p1-2", "p2-0"}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(results))
	}
	for i, w := range want {
		if results[i].Content != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, results[i].Content)
		}
	}
	for _, r := range results {
		if r.Content == "p1-3" || r.Content == "other-0" {
			t.Fatalf("unexpected result %s", r.Content)
		}
	}
}

func TestSearchAllTieBreakFollowsProjectOrder(t *testing.T) {
	chunks := newChunkStoreFake()
	projects := &projectStoreFake{projects: []domain.Project{
		{ID: "p1", OwnerID: "u"},
		{ID: "p2", OwnerID: "u"},
	}}
	chunks.seed("p1", "same words")
	chunks.seed("p2", "same words")
	uc := NewRetrieveUseCase(chunks, projects, scoring.NewJaccard(), domain.RetrievalLimits{})

	for run := 0; run < 10; run++ {
		results, err := uc.SearchAll(context.Background(), "same words", "u")
		if err != nil {
			t.Fatalf("SearchAll() error = %v", err)
		}
		if len(results) != 2 || results[0].ProjectID != "p1" || results[1].ProjectID != "p2" {
			t.Fatalf("run %d: expected p1 before p2, got %+v", run, results)
		}
	}
}

func TestSearchAllWithoutProjects(t *testing.T) {
	uc := NewRetrieveUseCase(newChunkStoreFake(), &projectStoreFake{}, scoring.NewJaccard(), domain.RetrievalLimits{})
	results, err := uc.SearchAll(context.Background(), "q", "nobody")
	if err != nil {
		t.Fatalf("SearchAll() error = %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchAllPropagatesErrors(t *testing.T) {
	projects := &projectStoreFake{listErr: errors.New("boom")}
	uc := NewRetrieveUseCase(newChunkStoreFake(), projects, scoring.NewJaccard(), domain.RetrievalLimits{})
	if _, err := uc.SearchAll(context.Background(), "q", "u"); err == nil {
		t.Fatalf("expected list error")
	}

	chunks := newChunkStoreFake()
	chunks.listErr = errors.New("boom")
	projects = &projectStoreFake{projects: []domain.Project{{ID: "p1", OwnerID: "u"}}}
	uc = NewRetrieveUseCase(chunks, projects, scoring.NewJaccard(), domain.RetrievalLimits{})
	if _, err := uc.SearchAll(context.Background(), "q", "u"); err == nil {
		t.Fatalf("expected search error")
	}
}

func TestSearchProjectRejectsForeignProject(t *testing.T) {
	chunks := newChunkStoreFake()
	chunks.seed("p1", "confidential cap table")
	projects := &projectStoreFake{projects: []domain.Project{{ID: "p1", OwnerID: "owner-a"}}}
	uc := NewRetrieveUseCase(chunks, projects, scoring.NewJaccard(), domain.RetrievalLimits{})

	_, err := uc.SearchProject(context.Background(), "cap table", "owner-b", "p1", 5)
	if !domain.IsKind(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}

	results, err := uc.SearchProject(context.Background(), "cap table", "owner-a", "p1", 5)
	if err != nil {
		t.Fatalf("SearchProject() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result for owner, got %d", len(results))
	}
}
