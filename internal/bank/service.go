package bank

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/prepdesk/exam-service/internal/metrics"
	"github.com/prepdesk/exam-service/internal/parser"
)

// Service resolves exam ids to parsed question sequences. Load failures are
// absorbed at this boundary: an unavailable document falls back to the
// configured default exam, and if that is unavailable too the result is an
// empty sequence, never a transport error.
type Service struct {
	loader      *Loader
	cache       Cache
	defaultExam string
	parserOpts  parser.Options
	logger      zerolog.Logger
}

// NewService wires the loader, cache and parser options.
func NewService(loader *Loader, cache Cache, defaultExam string, parserOpts parser.Options, logger zerolog.Logger) *Service {
	return &Service{
		loader:      loader,
		cache:       cache,
		defaultExam: defaultExam,
		parserOpts:  parserOpts,
		logger:      logger.With().Str("component", "bank_service").Logger(),
	}
}

// Catalog lists available exam ids.
func (s *Service) Catalog() []string {
	return s.loader.Catalog()
}

// Fetch returns the parsed questions for an exam id along with the id that
// was actually served (the default when the requested bank is missing).
func (s *Service) Fetch(ctx context.Context, examID string) (string, []parser.Question) {
	if qs, ok := s.fetchOne(ctx, examID); ok {
		return examID, qs
	}
	if s.defaultExam != "" && s.defaultExam != examID {
		s.logger.Warn().
			Str("exam_id", examID).
			Str("fallback", s.defaultExam).
			Msg("exam unavailable, serving default")
		if qs, ok := s.fetchOne(ctx, s.defaultExam); ok {
			return s.defaultExam, qs
		}
	}
	s.logger.Warn().Str("exam_id", examID).Msg("no questions available")
	return examID, nil
}

// fetchOne loads one bank through the cache. ok is false when the document
// cannot be read or parses to zero questions.
func (s *Service) fetchOne(ctx context.Context, examID string) ([]parser.Question, bool) {
	if cached, err := s.cache.Get(ctx, examID); err == nil && cached != nil {
		metrics.BankCacheHits.Inc()
		return cached, true
	} else if err != nil {
		s.logger.Warn().Err(err).Str("exam_id", examID).Msg("cache read failed")
	}
	metrics.BankCacheMisses.Inc()

	doc, err := s.loader.Read(examID)
	if err != nil {
		return nil, false
	}

	res := parser.ParseDocument(doc, s.parserOpts)
	if res.SkippedBlocks > 0 {
		metrics.ParseSkippedBlocks.Add(float64(res.SkippedBlocks))
		s.logger.Warn().
			Str("exam_id", examID).
			Int("skipped", res.SkippedBlocks).
			Msg("malformed question blocks skipped")
	}
	if len(res.Questions) == 0 {
		return nil, false
	}

	if err := s.cache.Set(ctx, examID, res.Questions); err != nil {
		s.logger.Warn().Err(err).Str("exam_id", examID).Msg("cache write failed")
	}
	return res.Questions, true
}
