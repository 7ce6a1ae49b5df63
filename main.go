package main

import "github.com/variantdev/webdeploy/cmd"

func main() {
	cmd.Execute()
}
