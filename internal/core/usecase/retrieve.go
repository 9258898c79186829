package usecase

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
)

const (
	DefaultTopK            = 5
	DefaultCandidateLimit  = 100
	DefaultPerProjectLimit = 3
	DefaultGlobalCap       = 5

	maxParallelProjectSearches = 8
)

type RetrieveUseCase struct {
	chunks   ports.ChunkStore
	projects ports.ProjectStore
	scorer   ports.Scorer
	limits   domain.RetrievalLimits
}

func NewRetrieveUseCase(
	chunks ports.ChunkStore,
	projects ports.ProjectStore,
	scorer ports.Scorer,
	limits domain.RetrievalLimits,
) *RetrieveUseCase {
	if limits.TopK <= 0 {
		limits.TopK = DefaultTopK
	}
	if limits.CandidateLimit <= 0 {
		limits.CandidateLimit = DefaultCandidateLimit
	}
	if limits.PerProjectLimit <= 0 {
		limits.PerProjectLimit = DefaultPerProjectLimit
	}
	if limits.GlobalCap <= 0 {
		limits.GlobalCap = DefaultGlobalCap
	}
	return &RetrieveUseCase{
		chunks:   chunks,
		projects: projects,
		scorer:   scorer,
		limits:   limits,
	}
}

// SimilaritySearch scores at most CandidateLimit chunks of one project and
// returns the best topK, most relevant first. Equal scores keep candidate
// order. A project without chunks yields an empty result.
func (uc *RetrieveUseCase) SimilaritySearch(ctx context.Context, query, projectID string, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = uc.limits.TopK
	}

	candidates, err := uc.chunks.ListByProject(ctx, projectID, uc.limits.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidate chunks: %w", err)
	}

	results := make([]domain.RetrievalResult, 0, len(candidates))
	for _, chunk := range candidates {
		results = append(results, domain.NewRetrievalResult(chunk, uc.scorer.Score(query, chunk.Content)))
	}
	sortBySimilarity(results)
	return trimResults(results, topK), nil
}

func (uc *RetrieveUseCase) SearchProject(ctx context.Context, query, ownerID, projectID string, topK int) ([]domain.RetrievalResult, error) {
	if _, err := uc.projects.GetByID(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	return uc.SimilaritySearch(ctx, query, projectID, topK)
}

// SearchAll fans a query out to every project the owner has, keeps
// PerProjectLimit results from each and merges them into the GlobalCap best.
// A chunk ranked below PerProjectLimit in its own project never reaches the
// merge, even if it would outscore another project's kept results.
func (uc *RetrieveUseCase) SearchAll(ctx context.Context, query, ownerID string) ([]domain.RetrievalResult, error) {
	projects, err := uc.projects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner projects: %w", err)
	}
	if len(projects) == 0 {
		return []domain.RetrievalResult{}, nil
	}

	perProject := make([][]domain.RetrievalResult, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelProjectSearches)
	for i, project := range projects {
		g.Go(func() error {
			results, err := uc.SimilaritySearch(gctx, query, project.ID, uc.limits.PerProjectLimit)
			if err != nil {
				return fmt.Errorf("search project %s: %w", project.ID, err)
			}
			perProject[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]domain.RetrievalResult, 0, len(projects)*uc.limits.PerProjectLimit)
	for _, results := range perProject {
		merged = append(merged, results...)
	}
	sortBySimilarity(merged)
	return trimResults(merged, uc.limits.GlobalCap), nil
}

func sortBySimilarity(results []domain.RetrievalResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

func trimResults(results []domain.RetrievalResult, limit int) []domain.RetrievalResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}
