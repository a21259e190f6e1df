package main

import "github.com/storepush/storepush/cmd/storepush/cmd"

func main() {
	cmd.Execute()
}
