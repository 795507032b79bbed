package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/truskill-essay-api/internal/dto"
	"github.com/noah-isme/truskill-essay-api/internal/models"
	"github.com/noah-isme/truskill-essay-api/internal/observability"
	"github.com/noah-isme/truskill-essay-api/internal/repository"
	"github.com/noah-isme/truskill-essay-api/pkg/ai"
	"github.com/noah-isme/truskill-essay-api/pkg/richtext"
)

// Grading outcomes reported to the caller.
const (
	OutcomeGraded        = "graded"
	OutcomeSavedUngraded = "saved_ungraded"
	OutcomeRejectedEmpty = "rejected_empty"
)

var (
	// ErrRejectedEmpty groups submissions refused before anything is stored.
	ErrRejectedEmpty = errors.New("essay rejected")
	// ErrEmptyTitle indicates the title was blank after trimming.
	ErrEmptyTitle = fmt.Errorf("%w: essay title cannot be empty", ErrRejectedEmpty)
	// ErrEmptyContent indicates the editor markup carried no text.
	ErrEmptyContent = fmt.Errorf("%w: essay content cannot be empty", ErrRejectedEmpty)
	// ErrEssayNotFound indicates the essay does not exist.
	ErrEssayNotFound = errors.New("essay not found")
	// ErrEssayForbidden indicates the caller may not read the essay.
	ErrEssayForbidden = errors.New("essay belongs to another student")
	// ErrEssayPersistence indicates the essay could not be written.
	ErrEssayPersistence = errors.New("failed to save essay")
)

// EssayAssessor grades a prompt. *ai.Assessor satisfies it.
type EssayAssessor interface {
	Assess(ctx context.Context, prompt string) ai.Result
}

// ContentNormalizer turns editor markup into Markdown.
type ContentNormalizer interface {
	Normalize(raw string) (richtext.Content, error)
}

// MarkdownRenderer turns stored Markdown into safe HTML.
type MarkdownRenderer interface {
	Render(markdown string) (string, error)
}

// EventPublisher delivers essay events. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// EssayViewer identifies who is reading an essay.
type EssayViewer struct {
	UserID uint
	Role   string
}

func (v EssayViewer) canReadAll() bool {
	switch v.Role {
	case models.UserTypeCollegeAdmin, models.UserTypeSuperAdmin:
		return true
	default:
		return false
	}
}

// EssayService grades essays and serves a student's essay history.
type EssayService interface {
	Submit(ctx context.Context, studentID uint, payload dto.EssaySubmitRequest) (dto.GradingOutcome, error)
	GradeAndRecordEssay(ctx context.Context, studentID uint, title, rawContent string) (dto.GradingOutcome, error)
	ListForStudent(ctx context.Context, studentID uint) ([]dto.EssayResponse, error)
	Get(ctx context.Context, id uint, viewer EssayViewer) (dto.EssayDetailResponse, error)
}

// EssayServiceOptions carries optional collaborators. Zero values disable the related feature.
type EssayServiceOptions struct {
	Normalizer   ContentNormalizer
	Renderer     MarkdownRenderer
	Cache        *redis.Client
	CacheTTL     time.Duration
	RenderTTL    time.Duration
	Events       EventPublisher
	EventSubject string
}

type essayService struct {
	essays       repository.EssayRepository
	assessor     EssayAssessor
	normalizer   ContentNormalizer
	renderer     MarkdownRenderer
	validator    *validator.Validate
	cache        *redis.Client
	cacheTTL     time.Duration
	rendered     *gocache.Cache
	events       EventPublisher
	eventSubject string
	tracer       trace.Tracer
	logger       zerolog.Logger
	now          func() time.Time
}

type essaySubmittedEvent struct {
	EventID          string    `json:"event_id"`
	EssayID          uint      `json:"essay_id"`
	StudentID        uint      `json:"student_id"`
	Title            string    `json:"title"`
	Outcome          string    `json:"outcome"`
	AssessmentStatus string    `json:"assessment_status"`
	OverallRating    *float64  `json:"overall_rating"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// NewEssayService wires the grading pipeline.
func NewEssayService(essays repository.EssayRepository, assessor EssayAssessor, validate *validator.Validate, opts EssayServiceOptions, logger zerolog.Logger) EssayService {
	if opts.Normalizer == nil {
		opts.Normalizer = richtext.NewNormalizer()
	}
	if opts.Renderer == nil {
		opts.Renderer = richtext.NewRenderer()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.RenderTTL <= 0 {
		opts.RenderTTL = 30 * time.Minute
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}

	return &essayService{
		essays:       essays,
		assessor:     assessor,
		normalizer:   opts.Normalizer,
		renderer:     opts.Renderer,
		validator:    validate,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		rendered:     gocache.New(opts.RenderTTL, 2*opts.RenderTTL),
		events:       opts.Events,
		eventSubject: opts.EventSubject,
		tracer:       otel.Tracer("github.com/noah-isme/truskill-essay-api/internal/service/essay"),
		logger:       logger.With().Str("component", "essay_service").Logger(),
		now:          time.Now,
	}
}

func (s *essayService) Submit(ctx context.Context, studentID uint, payload dto.EssaySubmitRequest) (dto.GradingOutcome, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradingOutcome{}, err
	}

	return s.GradeAndRecordEssay(ctx, studentID, payload.Title, payload.Content)
}

// GradeAndRecordEssay normalises the essay, grades it once and stores it whatever the grading result.
// Only a failed write is returned as a fatal error.
func (s *essayService) GradeAndRecordEssay(ctx context.Context, studentID uint, title, rawContent string) (dto.GradingOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "essays.grade_and_record", trace.WithAttributes(
		attribute.Int64("essay.student_id", int64(studentID)),
	))
	defer span.End()

	logger := s.logger.With().Uint("student_id", studentID).Logger()

	title = strings.TrimSpace(title)
	if title == "" {
		return s.reject("Please add a title before submitting your essay.", ErrEmptyTitle), ErrEmptyTitle
	}

	content, err := s.normalizer.Normalize(rawContent)
	if err != nil {
		if errors.Is(err, richtext.ErrEmptyContent) {
			return s.reject("Essay content cannot be empty for submission.", ErrEmptyContent), ErrEmptyContent
		}
		logger.Warn().Err(err).Msg("normalizer failed, storing placeholder content")
		content = richtext.Content{Markdown: richtext.FallbackMarkdown, WordCount: richtext.WordCount(richtext.FallbackMarkdown), Degraded: true}
	}
	if content.Degraded {
		logger.Warn().Msg("essay formatting could not be converted")
	}

	result := s.assessor.Assess(ctx, ai.BuildRubricPrompt(title, content.Markdown))
	status := result.Status()
	span.SetAttributes(attribute.String("essay.assessment_status", string(status)))

	payload, err := ai.FeedbackPayload(result)
	if err != nil {
		logger.Error().Err(err).Msg("failed to serialise feedback")
		payload, _ = json.Marshal(map[string]string{"error": fmt.Sprintf("Internal error preparing feedback: %v", err)})
	}

	essay := models.Essay{
		StudentID:       studentID,
		Title:           title,
		ContentMarkdown: content.Markdown,
		SubmissionTime:  s.now().UTC(),
		Feedback:        datatypes.JSON(payload),
		OverallRating:   ai.OverallRating(result),
	}

	if err := s.essays.Create(ctx, &essay); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "essay persistence failed")
		logger.Error().Err(err).Str("assessment_status", string(status)).Msg("failed to save essay")
		return dto.GradingOutcome{}, fmt.Errorf("%w: %w", ErrEssayPersistence, err)
	}

	s.invalidateHistory(ctx, studentID)

	outcome := dto.GradingOutcome{
		Outcome:        OutcomeGraded,
		EssayID:        essay.ID,
		SubmissionTime: &essay.SubmissionTime,
		WordCount:      content.WordCount,
		OverallRating:  essay.OverallRating,
		Degraded:       content.Degraded,
		Message:        "Essay submitted and assessed successfully!",
	}
	view := dto.NewFeedbackView(result)
	outcome.Feedback = &view

	if status != ai.StatusOK {
		outcome.Outcome = OutcomeSavedUngraded
		outcome.Message = "There was an issue processing the AI feedback. Your essay was saved, but feedback may be missing."
		logger.Warn().Uint("essay_id", essay.ID).Str("status", string(status)).Msg("essay saved without grading")
	} else {
		logger.Info().Uint("essay_id", essay.ID).Msg("essay graded")
	}

	observability.EssayOutcomes().WithLabelValues(outcome.Outcome).Inc()
	s.publishSubmitted(essay, outcome.Outcome, status)

	return outcome, nil
}

func (s *essayService) reject(message string, reason error) dto.GradingOutcome {
	s.logger.Debug().Err(reason).Msg("essay rejected")
	observability.EssayOutcomes().WithLabelValues(OutcomeRejectedEmpty).Inc()
	return dto.GradingOutcome{Outcome: OutcomeRejectedEmpty, Message: message}
}

func (s *essayService) ListForStudent(ctx context.Context, studentID uint) ([]dto.EssayResponse, error) {
	cacheKey := historyCacheKey(studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var responses []dto.EssayResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &responses); unmarshalErr == nil {
				observability.EssayCacheLookups().WithLabelValues("hit").Inc()
				return responses, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read essay history cache")
		}
		observability.EssayCacheLookups().WithLabelValues("miss").Inc()
	}

	essays, err := s.essays.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := dto.NewEssayResponses(essays)

	if s.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store essay history cache")
			}
		}
	}

	return responses, nil
}

func (s *essayService) Get(ctx context.Context, id uint, viewer EssayViewer) (dto.EssayDetailResponse, error) {
	essay, err := s.essays.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EssayDetailResponse{}, ErrEssayNotFound
		}
		return dto.EssayDetailResponse{}, err
	}

	if essay.StudentID != viewer.UserID && !viewer.canReadAll() {
		return dto.EssayDetailResponse{}, ErrEssayForbidden
	}

	return dto.NewEssayDetailResponse(essay, s.renderContent(essay)), nil
}

// renderContent memoises rendered HTML per essay; stored essays never change.
func (s *essayService) renderContent(essay models.Essay) string {
	key := strconv.FormatUint(uint64(essay.ID), 10)
	if cached, ok := s.rendered.Get(key); ok {
		if html, ok := cached.(string); ok {
			return html
		}
	}

	html, err := s.renderer.Render(essay.ContentMarkdown)
	if err != nil {
		s.logger.Warn().Err(err).Uint("essay_id", essay.ID).Msg("failed to render essay markdown")
		return ""
	}

	s.rendered.SetDefault(key, html)
	return html
}

func (s *essayService) invalidateHistory(ctx context.Context, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, historyCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate essay history cache")
	}
}

func (s *essayService) publishSubmitted(essay models.Essay, outcome string, status ai.Status) {
	if s.events == nil || s.eventSubject == "" {
		return
	}

	payload, err := json.Marshal(essaySubmittedEvent{
		EventID:          uuid.NewString(),
		EssayID:          essay.ID,
		StudentID:        essay.StudentID,
		Title:            essay.Title,
		Outcome:          outcome,
		AssessmentStatus: string(status),
		OverallRating:    essay.OverallRating,
		SubmittedAt:      essay.SubmissionTime,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode essay event")
		return
	}

	if err := s.events.Publish(s.eventSubject, payload); err != nil {
		observability.EssayEvents().WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).Uint("essay_id", essay.ID).Msg("failed to publish essay event")
		return
	}
	observability.EssayEvents().WithLabelValues("published").Inc()
}

func historyCacheKey(studentID uint) string {
	return fmt.Sprintf("essays:student:%d", studentID)
}
