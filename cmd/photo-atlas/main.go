// cmd/photo-atlas/main.go
package main

import (
	"github.com/bstardust/photo-atlas/internal/logger"
	"github.com/bstardust/photo-atlas/pkg/cli"
)

func main() {
	// Initialize logger
	logger.Init()

	// Execute CLI
	cli.Execute()
}
