package main

import "github.com/Yates-Labs/prdupe/cmd"

func main() {
	cmd.Execute()
}
