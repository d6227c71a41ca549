package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"scheduleBoard/internal/app"
	"scheduleBoard/internal/config"
	"scheduleBoard/internal/logger"
	"syscall"
)

func main() {
	configPath := flag.String("config", "", "путь к config.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "конфигурация:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg).Init(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "инициализация:", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("App: Сервер остановлен с ошибкой", err)
		os.Exit(1)
	}
}
