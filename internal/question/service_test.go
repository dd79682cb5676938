package question

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type stubStore struct {
	byID      map[primitive.ObjectID]*Question
	inserted  []*Question
	replaced  []*Question
	deleted   []primitive.ObjectID
	findFn    func(filter bson.M) ([]Question, error)
	tags      []string
	tagsErr   error
	countVal  int64
	insertErr error
}

func newStubStore() *stubStore {
	return &stubStore{byID: map[primitive.ObjectID]*Question{}}
}

func (s *stubStore) Insert(_ context.Context, q *Question) (*Question, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	q.ID = primitive.NewObjectID()
	s.inserted = append(s.inserted, q)
	s.byID[q.ID] = q
	return q, nil
}

func (s *stubStore) FindByID(_ context.Context, id primitive.ObjectID) (*Question, error) {
	q, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (s *stubStore) Find(_ context.Context, filter bson.M) ([]Question, error) {
	if s.findFn != nil {
		return s.findFn(filter)
	}
	return nil, nil
}

func (s *stubStore) Replace(_ context.Context, q *Question) (*Question, error) {
	if _, ok := s.byID[q.ID]; !ok {
		return nil, ErrNotFound
	}
	s.replaced = append(s.replaced, q)
	s.byID[q.ID] = q
	return q, nil
}

func (s *stubStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStore) DistinctTags(_ context.Context) ([]string, error) {
	return s.tags, s.tagsErr
}

func (s *stubStore) CountApproved(_ context.Context) (int64, error) {
	return s.countVal, nil
}

type stubDirectory struct {
	names map[primitive.ObjectID]string
	err   error
}

func (s *stubDirectory) NamesByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[primitive.ObjectID]string{}
	for _, id := range ids {
		if name, ok := s.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

type stubCleaner struct {
	removed [][]Media
	err     error
}

func (s *stubCleaner) Remove(_ context.Context, items []Media) error {
	s.removed = append(s.removed, items)
	return s.err
}

type stubGenerator struct {
	questions []GeneratedQuestion
	err       error
	calls     int
}

func (s *stubGenerator) GenerateFromText(_ context.Context, _ AIGenerateRequest) ([]GeneratedQuestion, error) {
	s.calls++
	return s.questions, s.err
}

type stubQuota struct {
	used      int
	usedErr   error
	recorded  int
	recordErr error
}

func (s *stubQuota) Used(_ context.Context, _ string) (int, error) {
	return s.used, s.usedErr
}

func (s *stubQuota) Record(_ context.Context, _ string) error {
	s.recorded++
	return s.recordErr
}

func newTestService(store *stubStore, dir *stubDirectory, cleaner *stubCleaner, gen *stubGenerator, q *stubQuota) *Service {
	if dir == nil {
		dir = &stubDirectory{}
	}
	var cl MediaCleaner
	if cleaner != nil {
		cl = cleaner
	}
	var ai AIGenerator
	if gen != nil {
		ai = gen
	}
	return NewService(store, dir, cl, ai, q, ServiceOptions{}, zerolog.Nop())
}

func TestServiceCreateSetsOwnershipAndApproval(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil, nil, nil, &stubQuota{})
	caller := student()

	created, err := svc.Create(context.Background(), caller, validBody())
	require.NoError(t, err)

	assert.Equal(t, caller.UserID, created.CreatedBy)
	assert.True(t, created.Approved)
	require.Len(t, store.inserted, 1)
}

func TestServiceCreateRejectsInvalidBody(t *testing.T) {
	store := newStubStore()
	svc := newTestService(store, nil, nil, nil, &stubQuota{})

	body := validBody()
	delete(body, "explanation")

	_, err := svc.Create(context.Background(), student(), body)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "explanation", verr.Field)
	assert.Empty(t, store.inserted)
}

func TestServiceGetResolvesAuthorName(t *testing.T) {
	store := newStubStore()
	author := primitive.NewObjectID()
	q := &Question{ID: primitive.NewObjectID(), CreatedBy: author}
	store.byID[q.ID] = q

	dir := &stubDirectory{names: map[primitive.ObjectID]string{author: "Dr. Name"}}
	svc := newTestService(store, dir, nil, nil, &stubQuota{})

	got, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Name", got.CreatedByName)
}

func TestServiceGetNotFound(t *testing.T) {
	svc := newTestService(newStubStore(), nil, nil, nil, &stubQuota{})
	_, err := svc.Get(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListAppliesCallerScope(t *testing.T) {
	store := newStubStore()
	var captured bson.M
	store.findFn = func(filter bson.M) ([]Question, error) {
		captured = filter
		return []Question{}, nil
	}
	svc := newTestService(store, nil, nil, nil, &stubQuota{})
	caller := student()

	_, err := svc.List(context.Background(), caller, ListParams{CreatedBy: "me"})
	require.NoError(t, err)
	assert.Equal(t, caller.UserID, captured["createdBy"])
	assert.Equal(t, true, captured["approved"])
}

func TestServiceListForbiddenScope(t *testing.T) {
	svc := newTestService(newStubStore(), nil, nil, nil, &stubQuota{})
	_, err := svc.List(context.Background(), student(), ListParams{CreatedBy: primitive.NewObjectID().Hex()})
	assert.ErrorIs(t, err, ErrForbiddenScope)
}

func TestServiceUpdateOwnershipRules(t *testing.T) {
	store := newStubStore()
	owner := student()
	existing := &Question{ID: primitive.NewObjectID(), CreatedBy: owner.UserID}
	store.byID[existing.ID] = existing

	svc := newTestService(store, nil, nil, nil, &stubQuota{})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := svc.Update(context.Background(), student(), existing.ID, validBody())
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, store.replaced)
	})

	t.Run("owner succeeds and identity fields survive", func(t *testing.T) {
		updated, err := svc.Update(context.Background(), owner, existing.ID, validBody())
		require.NoError(t, err)
		assert.Equal(t, existing.ID, updated.ID)
		assert.Equal(t, owner.UserID, updated.CreatedBy)
		assert.True(t, updated.Approved)
	})

	t.Run("admin succeeds", func(t *testing.T) {
		_, err := svc.Update(context.Background(), admin(), existing.ID, validBody())
		assert.NoError(t, err)
	})
}

func TestServiceDeleteCleansUpMedia(t *testing.T) {
	store := newStubStore()
	owner := student()
	existing := &Question{
		ID:            primitive.NewObjectID(),
		CreatedBy:     owner.UserID,
		QuestionMedia: []Media{{Type: "image", Filename: "a.png"}},
	}
	store.byID[existing.ID] = existing

	cleaner := &stubCleaner{}
	svc := newTestService(store, nil, cleaner, nil, &stubQuota{})

	require.NoError(t, svc.Delete(context.Background(), owner, existing.ID))
	require.Len(t, cleaner.removed, 1)
	assert.Equal(t, "a.png", cleaner.removed[0][0].Filename)
	assert.Len(t, store.deleted, 1)
}

func TestServiceDeleteSurvivesCleanupFailure(t *testing.T) {
	store := newStubStore()
	owner := student()
	existing := &Question{
		ID:            primitive.NewObjectID(),
		CreatedBy:     owner.UserID,
		QuestionMedia: []Media{{Type: "image", Filename: "a.png"}},
	}
	store.byID[existing.ID] = existing

	cleaner := &stubCleaner{err: errors.New("upload service down")}
	svc := newTestService(store, nil, cleaner, nil, &stubQuota{})

	assert.NoError(t, svc.Delete(context.Background(), owner, existing.ID))
	assert.Len(t, store.deleted, 1)
}

func TestServiceDeleteForbiddenForStranger(t *testing.T) {
	store := newStubStore()
	existing := &Question{ID: primitive.NewObjectID(), CreatedBy: primitive.NewObjectID()}
	store.byID[existing.ID] = existing

	svc := newTestService(store, nil, nil, nil, &stubQuota{})
	err := svc.Delete(context.Background(), student(), existing.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, store.deleted)
}

func TestServiceGenerateFromText(t *testing.T) {
	req := AIGenerateRequest{Text: "The heart has four chambers."}

	t.Run("within quota", func(t *testing.T) {
		gen := &stubGenerator{questions: []GeneratedQuestion{{ID: "q-1", QuestionText: "How many chambers?"}}}
		quota := &stubQuota{used: 2}
		svc := newTestService(newStubStore(), nil, nil, gen, quota)

		out, err := svc.GenerateFromText(context.Background(), "user-1", 5, req)
		require.NoError(t, err)
		assert.Len(t, out, 1)
		assert.Equal(t, 1, quota.recorded)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		gen := &stubGenerator{}
		quota := &stubQuota{used: 5}
		svc := newTestService(newStubStore(), nil, nil, gen, quota)

		_, err := svc.GenerateFromText(context.Background(), "user-1", 5, req)
		assert.ErrorIs(t, err, ErrQuotaExceeded)
		assert.Zero(t, gen.calls, "generator must not be called over quota")
		assert.Zero(t, quota.recorded)
	})

	t.Run("upstream failure does not consume quota", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("model timeout")}
		quota := &stubQuota{used: 0}
		svc := newTestService(newStubStore(), nil, nil, gen, quota)

		_, err := svc.GenerateFromText(context.Background(), "user-1", 5, req)
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Zero(t, quota.recorded)
	})

	t.Run("record failure is non-fatal", func(t *testing.T) {
		gen := &stubGenerator{questions: []GeneratedQuestion{{ID: "q-1"}}}
		quota := &stubQuota{recordErr: errors.New("redis down")}
		svc := newTestService(newStubStore(), nil, nil, gen, quota)

		_, err := svc.GenerateFromText(context.Background(), "user-1", 5, req)
		assert.NoError(t, err)
	})
}

func TestServiceTags(t *testing.T) {
	store := newStubStore()
	store.tags = []string{"cardio", "pharm"}
	svc := newTestService(store, nil, nil, nil, &stubQuota{})

	tags, err := svc.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"cardio", "pharm"}, tags)
}

func TestServiceListResolvesAuthorNames(t *testing.T) {
	store := newStubStore()
	author := primitive.NewObjectID()
	store.findFn = func(bson.M) ([]Question, error) {
		return []Question{{CreatedBy: author}, {CreatedBy: author}}, nil
	}
	dir := &stubDirectory{names: map[primitive.ObjectID]string{author: "Prof. Writer"}}
	svc := newTestService(store, dir, nil, nil, &stubQuota{})

	out, err := svc.List(context.Background(), student(), ListParams{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Prof. Writer", out[0].CreatedByName)
	assert.Equal(t, "Prof. Writer", out[1].CreatedByName)
}
