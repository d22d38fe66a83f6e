package main

import (
	"github.com/luma/picoredis/cmd"
)

func main() {
	cmd.Execute()
}
