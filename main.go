package main

import "github.com/mj1618/privacy-blur/cmd"

func main() {
	cmd.Execute()
}
