package main

import (
	"os"

	"github.com/Kiranreddymk90/ai-job-application-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
