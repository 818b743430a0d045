package main

import "github.com/OpenTraceLab/OpenTracePAL/cmd/pal/cmd"

func main() {
	cmd.Execute()
}
