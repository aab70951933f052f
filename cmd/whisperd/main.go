package main

import "whisper-api/cmd/whisperd/cmd"

func main() {
	cmd.Execute()
}
