package main

import (
	cmd "github.com/rohmanhakim/url-seeder/internal/cli"
)

func main() {
	cmd.Execute()
}
