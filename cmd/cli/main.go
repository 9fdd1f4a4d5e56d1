package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/crucial707/courier/cmd/cli/auth"
	"github.com/crucial707/courier/cmd/cli/messages"
	"github.com/crucial707/courier/cmd/cli/root"
	"github.com/crucial707/courier/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	users.InitUsers(rootCmd)
	messages.InitMessages(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
