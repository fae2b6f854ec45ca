// Command cra reviews source code with static analysis and an LLM.
package main

import "os"

func main() {
	os.Exit(Execute())
}
