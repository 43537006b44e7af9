package main

import "gitlab.com/lfmsh/bank/cmd"

func main() {
	// Execute command-line interface; should be the last call in main()
	cmd.Execute()
}
