package main

import (
	"context"
	"os"

	"github.com/sprocket78/ai-battle-app/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
