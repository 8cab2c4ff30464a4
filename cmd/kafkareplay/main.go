package main

import "github.com/quantica-technologies/kafka-replay/internal/cli"

func main() {
	cli.Execute()
}
