package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskQuest/internal/ai"
	"taskQuest/internal/auth"
	"taskQuest/internal/config"
	"taskQuest/internal/gamification"
	"taskQuest/internal/handlers"
	"taskQuest/internal/logger"
	"taskQuest/internal/middleware"
	"taskQuest/internal/repository/db"
	progressmem "taskQuest/internal/repository/progress/inmemory"
	progresspg "taskQuest/internal/repository/progress/postgres"
	taskmem "taskQuest/internal/repository/task/inmemory"
	taskpg "taskQuest/internal/repository/task/postgres"
	"taskQuest/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// progressStorage - пользователи, прогресс и каталог достижений живут в одном хранилище
type progressStorage interface {
	gamification.ProgressStore
	gamification.AchievementStore
	service.UserRepository
}

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	tasks     service.TaskRepository
	progress  progressStorage
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (_ *App, err error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})
	// при ошибке инициализации освобождаем уже открытые ресурсы
	defer func() {
		if err != nil {
			a.shutdown()
		}
	}()

	if err := a.initRepositories(ctx); err != nil {
		return nil, err
	}

	loc, err := a.config.Location()
	if err != nil {
		return nil, err
	}

	evaluator := gamification.NewEvaluator(a.progress, a.progress)
	if _, err := evaluator.Seed(ctx); err != nil {
		return nil, fmt.Errorf("заливка каталога достижений: %w", err)
	}
	ledger := gamification.NewLedger(a.progress, evaluator, gamification.WithLocation(loc))

	tokens := auth.NewManager(a.config.Auth.JWTSecret, a.config.Auth.TokenTTL)
	aiClient := ai.NewClient(a.config.AI)
	if !aiClient.Configured() {
		logger.Warn("AI: Ключ API не задан, ИИ-эндпоинты вернут 503")
	}

	taskService := service.NewTaskService(a.tasks, ledger)
	progressService := service.NewProgressService(a.progress, a.progress)
	userService := service.NewUserService(a.progress, tokens)
	aiService := service.NewAIService(aiClient, taskService, a.progress, a.progress)

	a.router = a.newRouter(tokens,
		handlers.NewTaskHandler(taskService),
		handlers.NewProgressHandler(progressService),
		handlers.NewAIHandler(aiService),
		handlers.NewUserHandler(userService))

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "taskquest"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("timezone", loc.String()),
		zap.Bool("ai_configured", aiClient.Configured()))
	return a, nil
}

func (a *App) initRepositories(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if a.config.Database.AutoMigrate {
			if err := db.MigrateUp(a.config.Database.URL); err != nil {
				return err
			}
		}

		pool, err := db.NewPool(ctx, a.config.Database)
		if err != nil {
			return err
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений...")
			pool.Close()
		})

		a.tasks = taskpg.New(pool)
		a.progress = progresspg.New(pool)

	default:
		a.tasks = taskmem.NewTaskStorage()
		a.progress = progressmem.New()
	}
	return nil
}

func (a *App) newRouter(tokens *auth.Manager, taskHandler handlers.TaskHandler, progressHandler handlers.ProgressHandler,
	aiHandler handlers.AIHandler, userHandler handlers.UserHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimitRPM))

	r.Get("/health", taskHandler.HealthCheck)
	r.Post("/users", userHandler.Register) // POST /users
	r.Get("/ai/status", aiHandler.Status)  // GET /ai/status

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tokens))

		r.Get("/users/me", userHandler.Me) // GET /users/me

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.GetTasks)  // GET /tasks?status=&from=&to=&q=
			r.Post("/", taskHandler.PostTask) // POST /tasks

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTaskByID)       // GET /tasks/{id}
				r.Put("/", taskHandler.UpdateTaskByID)    // PUT /tasks/{id}
				r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /tasks/{id}

				r.Get("/subtasks", taskHandler.GetSubtasks)                   // GET /tasks/{id}/subtasks
				r.Post("/complete", taskHandler.CompleteTask)                 // POST /tasks/{id}/complete
				r.Post("/accept-suggestion", taskHandler.AcceptDateSuggestion) // POST /tasks/{id}/accept-suggestion
			})
		})

		r.Get("/progress", progressHandler.GetProgress)         // GET /progress
		r.Get("/achievements", progressHandler.GetAchievements) // GET /achievements

		r.Route("/ai", func(r chi.Router) {
			r.Post("/tasks", aiHandler.ProcessInput)    // POST /ai/tasks
			r.Post("/transcribe", aiHandler.Transcribe) // POST /ai/transcribe
		})
	})

	return r
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		if err != nil {
			return fmt.Errorf("сервер: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Получен сигнал остановки, завершение работы сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.shutdown()
	if err != nil {
		return fmt.Errorf("остановка сервера: %w", err)
	}
	return nil
}

func (a *App) Handler() http.Handler {
	return a.router
}

// shutdown выполняет завершающие функции в обратном порядке
func (a *App) shutdown() {
	start := time.Now()
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
	logger.Debug("Ресурсы освобождены", zap.Duration("ms", time.Since(start)))
}
