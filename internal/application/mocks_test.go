package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// mockSurveySystem implements driven.SurveySystem with overridable functions.
type mockSurveySystem struct {
	mu sync.Mutex

	listUsersFn        func(ctx context.Context) ([]model.User, error)
	generateTokenFn    func(ctx context.Context, surveyID int64) (string, error)
	listParticipantsFn func(ctx context.Context, surveyID int64) ([]model.Participant, error)

	generateCalls    []int64
	participantCalls []int64
}

func (m *mockSurveySystem) ListSurveys(_ context.Context) ([]model.Survey, error) {
	return nil, nil
}

func (m *mockSurveySystem) ListQuestions(_ context.Context, _ int64) ([]model.Question, error) {
	return nil, nil
}

func (m *mockSurveySystem) ListAnswers(_ context.Context, _ int64) ([]model.Answer, error) {
	return nil, nil
}

func (m *mockSurveySystem) ListUsers(ctx context.Context) ([]model.User, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return nil, nil
}

func (m *mockSurveySystem) GenerateToken(ctx context.Context, surveyID int64) (string, error) {
	m.mu.Lock()
	m.generateCalls = append(m.generateCalls, surveyID)
	m.mu.Unlock()

	if m.generateTokenFn != nil {
		return m.generateTokenFn(ctx, surveyID)
	}
	return "tok", nil
}

func (m *mockSurveySystem) UpdateSurveyDetails(_ context.Context, _ model.Survey) error {
	return nil
}

func (m *mockSurveySystem) ListParticipants(ctx context.Context, surveyID int64) ([]model.Participant, error) {
	m.mu.Lock()
	m.participantCalls = append(m.participantCalls, surveyID)
	m.mu.Unlock()

	if m.listParticipantsFn != nil {
		return m.listParticipantsFn(ctx, surveyID)
	}
	return nil, nil
}

func (m *mockSurveySystem) generated() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.generateCalls...)
}

// addTokenCall records one AddSurveyToken invocation.
type addTokenCall struct {
	Token        string
	EntityID     int64
	AssessorID   int64
	PrincipalID  string
	SurveyID     int64
	PriorEventID int64
}

type statusUpdate struct {
	ID        string
	Valid     bool
	Completed bool
}

// mockTokenStore implements driven.TokenStore. Without addFn it returns
// priorEventID+1.
type mockTokenStore struct {
	mu sync.Mutex

	addFn    func(call addTokenCall) (int64, error)
	listFn   func(ctx context.Context, entityID int64) ([]model.Token, error)
	updateFn func(ctx context.Context, id string, valid, completed bool) error

	addCalls []addTokenCall
	updates  []statusUpdate
}

func (m *mockTokenStore) AddSurveyToken(_ context.Context, token string, entityID, assessorID int64, principalID string, surveyID, priorEventID int64) (int64, error) {
	call := addTokenCall{
		Token:        token,
		EntityID:     entityID,
		AssessorID:   assessorID,
		PrincipalID:  principalID,
		SurveyID:     surveyID,
		PriorEventID: priorEventID,
	}

	m.mu.Lock()
	m.addCalls = append(m.addCalls, call)
	m.mu.Unlock()

	if m.addFn != nil {
		return m.addFn(call)
	}
	return priorEventID + 1, nil
}

func (m *mockTokenStore) ListTokensByEntity(ctx context.Context, entityID int64) ([]model.Token, error) {
	if m.listFn != nil {
		return m.listFn(ctx, entityID)
	}
	return nil, nil
}

func (m *mockTokenStore) UpdateTokenStatus(ctx context.Context, id string, valid, completed bool) error {
	m.mu.Lock()
	m.updates = append(m.updates, statusUpdate{ID: id, Valid: valid, Completed: completed})
	m.mu.Unlock()

	if m.updateFn != nil {
		return m.updateFn(ctx, id, valid, completed)
	}
	return nil
}

func (m *mockTokenStore) calls() []addTokenCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]addTokenCall(nil), m.addCalls...)
}

// mockUserStore implements driven.UserStore over an in-memory slice.
type mockUserStore struct {
	mu      sync.Mutex
	users   []model.User
	listErr error
	saved   []model.User
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]model.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.users, nil
}

func (m *mockUserStore) GetUserDetails(_ context.Context, principalID string) (*model.User, error) {
	for _, u := range m.users {
		if u.PrincipalID == principalID {
			c := u.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) UpdateUserDetails(_ context.Context, user model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, user)
	return nil
}

// mockEntityStore implements driven.EntityStore over an in-memory slice.
type mockEntityStore struct {
	entities []model.Entity
}

func (m *mockEntityStore) ListEntities(_ context.Context) ([]model.Entity, error) {
	return m.entities, nil
}

func (m *mockEntityStore) GetEntity(_ context.Context, id int64) (*model.Entity, error) {
	for _, e := range m.entities {
		if e.ID == id {
			c := e
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockEntityStore) CreateEntity(_ context.Context, entity model.Entity) (model.Entity, error) {
	entity.ID = int64(len(m.entities) + 1)
	m.entities = append(m.entities, entity)
	return entity, nil
}
