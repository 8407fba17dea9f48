package main

import (
	"newsflow/cmd/cmd"
	"newsflow/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
