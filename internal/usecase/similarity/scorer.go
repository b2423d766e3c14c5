package similarity

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
	"github.com/peerloop/peerloop/internal/metrics"
)

// ModelProvider hands out the process-wide embedding model.
type ModelProvider interface {
	Model(ctx context.Context) (domain.BatchEmbedder, error)
}

// Scorer computes semantic similarity between texts. Failures in the
// embedding layer degrade to a zero score; callers never see an error.
type Scorer struct {
	provider ModelProvider
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a similarity scorer. timeout bounds one similarity
// computation, model load included.
func New(provider ModelProvider, timeout time.Duration, logger *zap.Logger) *Scorer {
	return &Scorer{provider: provider, timeout: timeout, logger: logger}
}

// Cosine computes the cosine similarity of two vectors.
// Returns 0 when either vector has zero norm or lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TextSimilarity returns the cosine similarity of two texts' embeddings.
//
// Blank input short-circuits to 0 without touching the model: missing
// profile fields are common and must not trigger embedding calls.
// Any embedding failure is logged and degrades to 0.
func (s *Scorer) TextSimilarity(ctx context.Context, text1, text2 string) float64 {
	if strings.TrimSpace(text1) == "" || strings.TrimSpace(text2) == "" {
		return 0
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	model, err := s.provider.Model(ctx)
	if err != nil {
		s.degrade(ctx, "model unavailable", err)
		return 0
	}

	res, err := model.BatchEmbed(ctx, []string{text1, text2})
	if err != nil {
		s.degrade(ctx, "embedding failed", err)
		return 0
	}
	if len(res.Embeddings) != 2 {
		s.degrade(ctx, "embedding returned wrong vector count", domain.ErrEmbeddingProviderError)
		return 0
	}

	return Cosine(res.Embeddings[0], res.Embeddings[1])
}

func (s *Scorer) degrade(_ context.Context, msg string, err error) {
	metrics.SimilarityDegradedTotal.Inc()
	s.logger.Warn("Similarity degraded to 0: "+msg, zap.Error(err))
}
