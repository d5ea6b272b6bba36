package main

import "github.com/clickoflow/clickoflow/cmd"

func main() {
	cmd.Execute()
}
