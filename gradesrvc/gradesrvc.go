package gradesrvc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"goa.design/clue/log"

	"github.com/programme-lv/grader/jobrunner"
	"github.com/programme-lv/grader/outcome"
	"github.com/programme-lv/grader/question"
	"github.com/programme-lv/grader/srvcerror"
)

// GradeService is the public face of the engine: it validates the
// question, selects the test cases for the check type, consults the
// outcome cache, runs the tests and applies the scoring policy.
type GradeService struct {
	runner *jobrunner.Runner
	repo   OutcomeRepo
}

func NewGradeService(runner *jobrunner.Runner, repo OutcomeRepo) *GradeService {
	return &GradeService{runner: runner, repo: repo}
}

// GradeRequest is one submission to grade.
type GradeRequest struct {
	Question   question.Question `json:"question"`
	Code       string            `json:"code"`
	IsPrecheck bool              `json:"isprecheck"`

	// Number of earlier graded (non-precheck) tries of this question,
	// used by the penalty regime. The current try is not counted.
	PrevTries int `json:"prevtries"`
}

// GradeResult pairs the raw testing outcome with the scored fraction
// after the all-or-nothing and penalty policies.
type GradeResult struct {
	Outcome          *outcome.TestingOutcome `json:"outcome"`
	RawFraction      float64                 `json:"rawfraction"`
	AdjustedFraction float64                 `json:"adjustedfraction"`
	FromCache        bool                    `json:"fromcache"`
	CacheKey         string                  `json:"cachekey"`
}

// GradeSubmission runs the full grading pipeline for one submission.
func (s *GradeService) GradeSubmission(ctx context.Context, req GradeRequest) (*GradeResult, *srvcerror.Error) {
	q := &req.Question
	if err := q.Validate(); err != nil {
		if se, ok := err.(*srvcerror.Error); ok {
			return nil, se
		}
		return nil, srvcerror.ErrInternalSE().SetDebug(err)
	}

	selected := question.SelectTestCases(q, req.IsPrecheck)
	key, keyErr := cacheKey(q, req.Code, req.IsPrecheck)
	if keyErr != nil {
		return nil, srvcerror.ErrInternalSE().SetDebug(keyErr)
	}

	o, hit := s.cachedOutcome(ctx, key)
	if !hit {
		var runErr *srvcerror.Error
		o, runErr = s.runner.RunTests(ctx, q, req.Code, selected, req.IsPrecheck)
		if runErr != nil {
			return nil, runErr
		}
		s.saveOutcome(ctx, key, o)
	}

	raw := o.MarkAsFraction()
	adjusted := s.applyScoringPolicy(ctx, q, o, raw, req.IsPrecheck, req.PrevTries)

	return &GradeResult{
		Outcome:          o,
		RawFraction:      raw,
		AdjustedFraction: adjusted,
		FromCache:        hit,
		CacheKey:         key,
	}, nil
}

// applyScoringPolicy turns the raw mark fraction into the final score.
// Prechecks are never penalised and ignore all-or-nothing: their point
// is feedback, not marks.
func (s *GradeService) applyScoringPolicy(
	ctx context.Context,
	q *question.Question,
	o *outcome.TestingOutcome,
	raw float64,
	isPrecheck bool,
	prevTries int,
) float64 {
	if isPrecheck {
		return raw
	}
	adjusted := raw
	if q.AllOrNothing && !o.AllCorrect() {
		adjusted = 0
	}
	if q.PenaltyRegime != "" {
		regime, err := question.ParsePenaltyRegime(q.PenaltyRegime)
		if err != nil {
			// Validate() already rejected malformed regimes; reaching
			// here means the question changed under us. Grade without
			// the penalty rather than fail the whole submission.
			log.Errorf(ctx, err, "unparseable penalty regime %q", q.PenaltyRegime)
			return adjusted
		}
		adjusted = regime.AdjustedFraction(adjusted, prevTries)
	}
	return adjusted
}

func (s *GradeService) cachedOutcome(ctx context.Context, key string) (*outcome.TestingOutcome, bool) {
	if s.repo == nil {
		return nil, false
	}
	data, err := s.repo.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}
	o, err := outcome.Decode(data)
	if err != nil {
		// Stale or corrupt cache entry; rerun the tests.
		log.Errorf(ctx, err, "discarding undecodable cached outcome %s", key)
		return nil, false
	}
	log.Printf(ctx, "grade cache hit %s", key)
	return o, true
}

func (s *GradeService) saveOutcome(ctx context.Context, key string, o *outcome.TestingOutcome) {
	if s.repo == nil {
		return
	}
	data, err := outcome.Encode(o)
	if err != nil {
		log.Errorf(ctx, err, "encoding outcome for cache")
		return
	}
	if err := s.repo.Save(ctx, key, data); err != nil {
		// Cache failures never fail the grading.
		log.Errorf(ctx, err, "saving outcome %s", key)
	}
}

// GetOutcome fetches a previously cached outcome by its key, for
// clients re-rendering feedback without regrading.
func (s *GradeService) GetOutcome(ctx context.Context, key string) (*outcome.TestingOutcome, *srvcerror.Error) {
	if s.repo == nil {
		return nil, ErrOutcomeNotFound()
	}
	data, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, srvcerror.ErrInternalSE().SetDebug(err)
	}
	if data == nil {
		return nil, ErrOutcomeNotFound()
	}
	o, err := outcome.Decode(data)
	if err != nil {
		return nil, srvcerror.ErrInternalSE().SetDebug(err)
	}
	return o, nil
}

// cacheKey hashes everything the outcome depends on. The version tag
// guards against replaying outcomes across engine behaviour changes.
func cacheKey(q *question.Question, code string, isPrecheck bool) (string, error) {
	qJson, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal question for cache key: %w", err)
	}
	h := sha256.New()
	h.Write([]byte("v1\x00"))
	h.Write(qJson)
	h.Write([]byte{0})
	h.Write([]byte(code))
	if isPrecheck {
		h.Write([]byte{0, 1})
	} else {
		h.Write([]byte{0, 0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
