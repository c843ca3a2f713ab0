// Command stratafiles runs the file storage API server.
package main

import (
	"context"

	"github.com/dalemusser/stratafiles/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	app.Run(context.Background(), bootstrap.Hooks)
}
