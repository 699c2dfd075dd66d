package main

import (
	"github.com/docmind-ai/docmind/internal/server"
	"github.com/docmind-ai/docmind/internal/util"
	"github.com/docmind-ai/docmind/pkg/logger"
	"github.com/docmind-ai/docmind/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
