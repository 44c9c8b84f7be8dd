package benchmark

import (
	"context"
	"time"
)

type Config struct {
	Host string
	Port int
}

type Logger struct {
	Level string
}

type Database struct {
	Config *Config
	Logger *Logger
}

type Repository struct {
	DB *Database
}

// Worker is a hosted service whose Start and Stop each take work.
type Worker struct {
	ID   int
	work time.Duration
}

func (w *Worker) Start(context.Context) error {
	if w.work > 0 {
		time.Sleep(w.work)
	}
	return nil
}

func (w *Worker) Stop(context.Context) error {
	if w.work > 0 {
		time.Sleep(w.work)
	}
	return nil
}
