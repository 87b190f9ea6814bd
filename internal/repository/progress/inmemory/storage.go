package inmemory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"taskQuest/internal/models/achievement"
	"taskQuest/internal/models/progress"
	"taskQuest/internal/models/user"
	repo "taskQuest/internal/repository"

	"github.com/google/uuid"
)

// Storage держит пользователей, их прогресс и каталог достижений
type Storage struct {
	mtx          *sync.RWMutex
	users        map[uuid.UUID]*user.User
	byEmail      map[string]uuid.UUID
	progress     map[uuid.UUID]*progress.Progress
	achievements []achievement.Achievement
}

func New() *Storage {
	return &Storage{
		mtx:          &sync.RWMutex{},
		users:        make(map[uuid.UUID]*user.User),
		byEmail:      make(map[string]uuid.UUID),
		progress:     make(map[uuid.UUID]*progress.Progress),
		achievements: []achievement.Achievement{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser сохраняет пользователя и его стартовый прогресс атомарно
func (s *Storage) CreateUser(ctx context.Context, u *user.User, p *progress.Progress) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.byEmail[emailKey(u.Email)]; ok {
		return repo.ErrAlreadyExists
	}
	if _, ok := s.users[u.UUID]; ok {
		return repo.ErrAlreadyExists
	}

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	p.Version = 1

	copied := *u
	s.users[u.UUID] = &copied
	s.byEmail[emailKey(u.Email)] = u.UUID
	s.progress[p.UserID] = p.Clone()
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, repo.ErrNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *Storage) UpdateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.users[u.UUID]
	if !ok {
		return repo.ErrNotFound
	}

	now := time.Now()
	existed.Name = u.Name
	existed.Avatar = u.Avatar
	existed.UpdatedAt = &now
	u.UpdatedAt = &now
	return nil
}

func (s *Storage) GetProgress(ctx context.Context, userID uuid.UUID) (*progress.Progress, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	p, ok := s.progress[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return p.Clone(), nil
}

// UpdateProgress пишет счётчики с проверкой версии; достижения меняет только AppendAchievements
func (s *Storage) UpdateProgress(ctx context.Context, p *progress.Progress) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.progress[p.UserID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != p.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	p.UpdatedAt = &now
	p.Version++

	stored := p.Clone()
	stored.UnlockedAchievements = existed.UnlockedAchievements
	stored.Customization = existed.Customization
	stored.CharacterType = existed.CharacterType
	s.progress[p.UserID] = stored
	return nil
}

func (s *Storage) AppendAchievements(ctx context.Context, userID uuid.UUID, ids []string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	p, ok := s.progress[userID]
	if !ok {
		return repo.ErrNotFound
	}
	if len(p.Unlock(ids...)) > 0 {
		now := time.Now()
		p.UpdatedAt = &now
	}
	return nil
}

func (s *Storage) ListAchievements(ctx context.Context) ([]achievement.Achievement, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return slices.Clone(s.achievements), nil
}

// SeedAchievements заполняет каталог только если он пуст
func (s *Storage) SeedAchievements(ctx context.Context, catalog []achievement.Achievement) (int, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(s.achievements) > 0 {
		return 0, nil
	}

	now := time.Now()
	for _, a := range catalog {
		a.CreatedAt = now
		s.achievements = append(s.achievements, a)
	}
	return len(catalog), nil
}
