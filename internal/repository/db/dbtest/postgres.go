// Package dbtest поднимает PostgreSQL в контейнере для интеграционных тестов хранилищ
package dbtest

import (
	"context"
	"fmt"
	"time"

	"taskQuest/internal/config"
	"taskQuest/internal/repository/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const image = "postgres:15-alpine"

type Postgres struct {
	Container testcontainers.Container
	URL       string
	Pool      *pgxpool.Pool
}

// Start запускает контейнер, применяет миграции и открывает пул
func Start(ctx context.Context) (*Postgres, error) {
	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("запуск контейнера: %w", err)
	}

	pg := &Postgres{Container: container}

	host, err := container.Host(ctx)
	if err != nil {
		pg.Close(ctx)
		return nil, fmt.Errorf("адрес контейнера: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		pg.Close(ctx)
		return nil, fmt.Errorf("порт контейнера: %w", err)
	}
	pg.URL = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := db.MigrateUp(pg.URL); err != nil {
		pg.Close(ctx)
		return nil, err
	}

	pg.Pool, err = db.NewPool(ctx, config.DatabaseConfig{URL: pg.URL, MaxConnections: 5})
	if err != nil {
		pg.Close(ctx)
		return nil, err
	}
	return pg, nil
}

// Truncate очищает данные между тестами; каталог достижений сохраняется
func (p *Postgres) Truncate(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `TRUNCATE tasks, user_progress, users CASCADE`)
	return err
}

func (p *Postgres) Close(ctx context.Context) {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.Container != nil {
		_ = p.Container.Terminate(ctx)
	}
}
