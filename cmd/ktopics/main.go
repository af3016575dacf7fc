package main

import "github.com/gmbyapa/ktopics/cmd/ktopics/internal/cmd"

func main() {
	cmd.Execute()
}
