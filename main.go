package main

import "github.com/smartattendai/smart-attendance/cmd"

func main() {
	cmd.Execute()
}
