package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound signals that no question exists for the given id.
	ErrNotFound = errors.New("question not found")
	// ErrForbidden signals an owner/role mismatch on mutation.
	ErrForbidden = errors.New("not authorized")
	// ErrQuotaExceeded signals the caller used up today's AI generations.
	ErrQuotaExceeded = errors.New("daily AI usage limit reached")
	// ErrUpstream signals a failed or malformed response from the
	// generation API.
	ErrUpstream = errors.New("question generation failed")
)

// Store is the persistence collaborator for questions.
type Store interface {
	Insert(ctx context.Context, q *Question) (*Question, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*Question, error)
	Find(ctx context.Context, filter bson.M) ([]Question, error)
	Replace(ctx context.Context, q *Question) (*Question, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DistinctTags(ctx context.Context) ([]string, error)
	CountApproved(ctx context.Context) (int64, error)
}

// UserDirectory resolves author display names for listings.
type UserDirectory interface {
	NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)
}

// MediaCleaner removes uploaded media objects when a question is deleted.
// Cleanup is best-effort and never blocks the delete.
type MediaCleaner interface {
	Remove(ctx context.Context, items []Media) error
}

// AIGenerateRequest carries the source text for AI question generation.
type AIGenerateRequest struct {
	Text         string
	Instructions string
	LiteralMode  bool
}

// GeneratedQuestion is one draft item returned by the generation API.
type GeneratedQuestion struct {
	ID            string   `json:"id"`
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// AIGenerator produces draft questions from free text.
type AIGenerator interface {
	GenerateFromText(ctx context.Context, req AIGenerateRequest) ([]GeneratedQuestion, error)
}

// UsageQuota tracks per-user daily AI generation counts.
type UsageQuota interface {
	Used(ctx context.Context, userID string) (int, error)
	Record(ctx context.Context, userID string) error
}

// Service orchestrates question CRUD, listing and AI generation.
type Service struct {
	store   Store
	users   UserDirectory
	cleaner MediaCleaner
	ai      AIGenerator
	quota   UsageQuota
	logger  zerolog.Logger

	legacyORSlot bool
}

// ServiceOptions tunes service behavior.
type ServiceOptions struct {
	// LegacyORSlot restores the historical overwrite between the
	// subject/topic and hasMedia OR-groups. See BuildOptions.
	LegacyORSlot bool
}

func NewService(store Store, users UserDirectory, cleaner MediaCleaner, ai AIGenerator, quota UsageQuota, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		store:        store,
		users:        users,
		cleaner:      cleaner,
		ai:           ai,
		quota:        quota,
		logger:       logger.With().Str("component", "question_service").Logger(),
		legacyORSlot: opts.LegacyORSlot,
	}
}

// Create validates a submission and persists it under the caller's
// ownership. Author-initiated questions are approved immediately.
func (s *Service) Create(ctx context.Context, caller Identity, body map[string]interface{}) (*Question, error) {
	q, verr := Normalize(body, ModeCreate)
	if verr != nil {
		return nil, verr
	}

	q.CreatedBy = caller.UserID
	q.Approved = true

	created, err := s.store.Insert(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	s.logger.Info().Str("question_id", created.ID.Hex()).Str("user_id", caller.UserID.Hex()).Msg("question created")
	return created, nil
}

// Get fetches a single question with its author name resolved.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*Question, error) {
	q, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	names, err := s.users.NamesByIDs(ctx, []primitive.ObjectID{q.CreatedBy})
	if err == nil {
		q.CreatedByName = names[q.CreatedBy]
	}
	return q, nil
}

// List builds the compound filter from the request parameters and returns
// matching questions, newest first, with author names resolved.
func (s *Service) List(ctx context.Context, caller Identity, params ListParams) ([]Question, error) {
	filter, err := Build(params, caller, BuildOptions{LegacyORSlot: s.legacyORSlot})
	if err != nil {
		return nil, err
	}

	questions, err := s.store.Find(ctx, filter.BSON())
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	s.resolveAuthorNames(ctx, questions)
	return questions, nil
}

// Update revalidates the full submission and replaces the stored question.
// Only the owner or an admin may update.
func (s *Service) Update(ctx context.Context, caller Identity, id primitive.ObjectID, body map[string]interface{}) (*Question, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanModify(caller, existing.CreatedBy) {
		return nil, ErrForbidden
	}

	q, verr := Normalize(body, ModeUpdate)
	if verr != nil {
		return nil, verr
	}

	q.ID = existing.ID
	q.CreatedBy = existing.CreatedBy
	q.CreatedAt = existing.CreatedAt
	q.Approved = true

	updated, err := s.store.Replace(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("replace question: %w", err)
	}
	s.logger.Info().Str("question_id", id.Hex()).Str("user_id", caller.UserID.Hex()).Msg("question updated")
	return updated, nil
}

// Delete removes a question after the ownership check, cleaning up its
// uploaded media first. Media cleanup failures are logged, never fatal.
func (s *Service) Delete(ctx context.Context, caller Identity, id primitive.ObjectID) error {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanModify(caller, existing.CreatedBy) {
		return ErrForbidden
	}

	if s.cleaner != nil {
		if media := existing.AllMedia(); len(media) > 0 {
			if err := s.cleaner.Remove(ctx, media); err != nil {
				s.logger.Warn().Err(err).Str("question_id", id.Hex()).Msg("media cleanup failed")
			}
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("question_id", id.Hex()).Str("user_id", caller.UserID.Hex()).Msg("question deleted")
	return nil
}

// Tags returns every distinct tag in the collection.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	return s.store.DistinctTags(ctx)
}

// TotalApproved counts listing-visible questions.
func (s *Service) TotalApproved(ctx context.Context) (int64, error) {
	return s.store.CountApproved(ctx)
}

// GenerateFromText asks the AI collaborator for draft questions, bounded by
// the caller's daily quota. The quota is only consumed on success.
func (s *Service) GenerateFromText(ctx context.Context, userID string, limit int, req AIGenerateRequest) ([]GeneratedQuestion, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("%w: generator not configured", ErrUpstream)
	}

	used, err := s.quota.Used(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check usage: %w", err)
	}
	if used >= limit {
		return nil, ErrQuotaExceeded
	}

	questions, err := s.ai.GenerateFromText(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := s.quota.Record(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("failed to record AI usage")
	}
	return questions, nil
}

func (s *Service) resolveAuthorNames(ctx context.Context, questions []Question) {
	if len(questions) == 0 {
		return
	}
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for i := range questions {
		if _, ok := seen[questions[i].CreatedBy]; !ok {
			seen[questions[i].CreatedBy] = struct{}{}
			ids = append(ids, questions[i].CreatedBy)
		}
	}
	names, err := s.users.NamesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve author names")
		return
	}
	for i := range questions {
		questions[i].CreatedByName = names[questions[i].CreatedBy]
	}
}
