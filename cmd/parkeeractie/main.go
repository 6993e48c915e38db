package main

import (
	"context"
	"parkeeractie/cmd/parkeeractie/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
