package main

import "github.com/carrotIndustries/horizon/cmd/horizon-tool/cmd"

func main() {
	cmd.Execute()
}
