package main

import "github.com/atikulmunna/syslens/internal/cmd"

func main() {
	cmd.Execute()
}
