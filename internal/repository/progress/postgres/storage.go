package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskQuest/internal/logger"
	"taskQuest/internal/models/achievement"
	"taskQuest/internal/models/progress"
	"taskQuest/internal/models/user"
	repo "taskQuest/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

const uniqueViolation = "23505"

// Storage - пользователи, прогресс и каталог достижений в PostgreSQL
type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func warnIfSlow(op string, start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("op", op),
			zap.Duration("ms", time.Since(start)))
	}
}

// CreateUser вставляет пользователя и стартовый прогресс в одной транзакции
func (s *Storage) CreateUser(ctx context.Context, u *user.User, p *progress.Progress) error {
	start := time.Now()
	defer warnIfSlow("user.create", start)

	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO users (uuid, email, name, avatar, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			u.UUID, u.Email, u.Name, u.Avatar, u.CreatedAt)
		if err != nil {
			return err
		}

		return tx.QueryRow(ctx,
			`INSERT INTO user_progress
				(user_id, total_xp, current_level, current_streak, longest_streak,
				character_type, character_stage, character_color, character_accessories,
				unlocked_achievements, tasks_completed, perfect_days, created_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
			RETURNING version`,
			p.UserID, p.TotalXP, p.CurrentLevel, p.CurrentStreak, p.LongestStreak,
			p.CharacterType, p.CharacterStage, p.Customization.Color, p.Customization.Accessories,
			p.UnlockedAchievements, p.TasksCompleted, p.PerfectDays, p.CreatedAt,
		).Scan(&p.Version)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось создать пользователя", err)
		return fmt.Errorf("создание пользователя: %w", err)
	}
	return nil
}

func (s *Storage) getUser(ctx context.Context, where string, arg any) (*user.User, error) {
	start := time.Now()
	defer warnIfSlow("user.get", start)

	rows, err := s.pool.Query(ctx,
		`SELECT uuid, email, name, avatar, created_at, updated_at FROM users WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[user.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить пользователя", err)
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.getUser(ctx, `uuid = $1`, id)
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUser(ctx, `lower(email) = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Storage) UpdateUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer warnIfSlow("user.update", start)

	err := s.pool.QueryRow(ctx,
		`UPDATE users SET name = $1, avatar = $2, updated_at = NOW()
		WHERE uuid = $3
		RETURNING updated_at`,
		u.Name, u.Avatar, u.UUID,
	).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить пользователя", err)
		return fmt.Errorf("обновление пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetProgress(ctx context.Context, userID uuid.UUID) (*progress.Progress, error) {
	start := time.Now()
	defer warnIfSlow("progress.get", start)

	query := `SELECT user_id, total_xp, current_level, current_streak, longest_streak,
				last_task_completed_date, character_type, character_stage,
				character_color, character_accessories, unlocked_achievements,
				tasks_completed, perfect_days, created_at, updated_at, version
			FROM user_progress
			WHERE user_id = $1`

	p := &progress.Progress{}
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.TotalXP,
		&p.CurrentLevel,
		&p.CurrentStreak,
		&p.LongestStreak,
		&p.LastTaskCompletedDate,
		&p.CharacterType,
		&p.CharacterStage,
		&p.Customization.Color,
		&p.Customization.Accessories,
		&p.UnlockedAchievements,
		&p.TasksCompleted,
		&p.PerfectDays,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить прогресс", err)
		return nil, fmt.Errorf("получение прогресса: %w", err)
	}
	return p, nil
}

// UpdateProgress пишет счётчики XP и стрика при совпадении версии.
// unlocked_achievements здесь не пишется, его меняет только AppendAchievements.
func (s *Storage) UpdateProgress(ctx context.Context, p *progress.Progress) error {
	start := time.Now()
	defer warnIfSlow("progress.update", start)

	query := `UPDATE user_progress
			SET total_xp = $1,
				current_level = $2,
				current_streak = $3,
				longest_streak = $4,
				last_task_completed_date = $5,
				character_stage = $6,
				tasks_completed = $7,
				perfect_days = $8,
				updated_at = NOW(),
				version = version + 1
			WHERE user_id = $9 AND version = $10
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		p.TotalXP,
		p.CurrentLevel,
		p.CurrentStreak,
		p.LongestStreak,
		p.LastTaskCompletedDate,
		p.CharacterStage,
		p.TasksCompleted,
		p.PerfectDays,
		p.UserID,
		p.Version,
	).Scan(&p.UpdatedAt, &p.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := s.pool.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM user_progress WHERE user_id = $1)`, p.UserID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("проверка прогресса: %w", err)
			}
			if !exists {
				return repo.ErrNotFound
			}
			logger.Warn("Конфликт версий при обновлении прогресса",
				zap.String("user_id", p.UserID.String()),
				zap.Int("expected_version", p.Version))
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: Не удалось обновить прогресс", err)
		return fmt.Errorf("обновление прогресса: %w", err)
	}
	return nil
}

// AppendAchievements добавляет только отсутствующие id, порядок существующих сохраняется
func (s *Storage) AppendAchievements(ctx context.Context, userID uuid.UUID, ids []string) error {
	start := time.Now()
	defer warnIfSlow("progress.append_achievements", start)

	query := `UPDATE user_progress
			SET unlocked_achievements = unlocked_achievements || ARRAY(
					SELECT a FROM unnest($2::text[]) WITH ORDINALITY AS t(a, n)
					WHERE NOT (a = ANY(unlocked_achievements))
					ORDER BY n),
				updated_at = NOW()
			WHERE user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, ids)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить достижения", err)
		return fmt.Errorf("сохранение достижений: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) ListAchievements(ctx context.Context) ([]achievement.Achievement, error) {
	start := time.Now()
	defer warnIfSlow("achievement.list", start)

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, icon, requirement_type, requirement_value, xp_reward, created_at
		FROM achievements
		ORDER BY created_at, requirement_value`)
	if err != nil {
		logger.Error("Repository: Не удалось получить достижения", err)
		return nil, fmt.Errorf("получение достижений: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (achievement.Achievement, error) {
		var a achievement.Achievement
		err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Icon,
			&a.Requirement.Type, &a.Requirement.Value, &a.XPReward, &a.CreatedAt)
		return a, err
	})
}

// SeedAchievements вставляет каталог, только если таблица пуста
func (s *Storage) SeedAchievements(ctx context.Context, catalog []achievement.Achievement) (int, error) {
	start := time.Now()
	defer warnIfSlow("achievement.seed", start)

	inserted := 0
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// два экземпляра, стартующих одновременно, не должны залить каталог дважды
		if _, err := tx.Exec(ctx, `LOCK TABLE achievements IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}

		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM achievements`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		batch := &pgx.Batch{}
		now := time.Now()
		for i, a := range catalog {
			// порядок каталога сохраняется через created_at
			batch.Queue(`INSERT INTO achievements
					(id, name, description, icon, requirement_type, requirement_value, xp_reward, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO NOTHING`,
				a.ID, a.Name, a.Description, a.Icon, a.Requirement.Type, a.Requirement.Value, a.XPReward,
				now.Add(time.Duration(i)*time.Microsecond))
		}

		results := tx.SendBatch(ctx, batch)
		for range catalog {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		logger.Error("Repository: Не удалось залить каталог достижений", err)
		return 0, fmt.Errorf("заливка достижений: %w", err)
	}
	return inserted, nil
}
