package main

import "github.com/theirongolddev/kantong/cmd"

func main() {
	cmd.Execute()
}
