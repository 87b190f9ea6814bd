package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"taskQuest/internal/app"
	"taskQuest/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("TASKQUEST_CONFIG"))
	if err != nil {
		log.Fatalf("загрузка конфига: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg).Init(ctx)
	if err != nil {
		log.Fatalf("инициализация приложения: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("работа приложения: %v", err)
	}
}
