package main

import (
	"log"
	"os"

	"github.com/chepyr/go-todo/internal/cli"
)

func main() {
	app := cli.New(cli.NewStorage(), os.Stdin, os.Stdout)
	if err := app.Run(); err != nil {
		log.Fatalf("todo: %v", err)
	}
}
