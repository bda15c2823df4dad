package main

import (
	"os"

	"github.com/dudgeon/chat-frontier-family/internal/app"
)

//	@title			Chat Frontier Family API
//	@version		1.0
//	@description	Chat backend with streamed model responses, session metadata and realtime change events.
//	@BasePath		/api/v1

func main() {
	os.Exit(app.Run())
}
