package main

import (
	"log/slog"

	"github.com/roomio/roomio/cmd/roomio/cli"
	"github.com/roomio/roomio/internal/app"
)

func main() {
	if err := app.LoadEnvFiles(); err != nil {
		slog.Default().Warn("could not load .env file", slog.Any("error", err))
	}

	cli.Execute()
}
