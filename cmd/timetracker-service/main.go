package main

import (
	"os"

	"github.com/opsdeck/timetracker/trackerservice"
)

func main() {
	if err := trackerservice.Run(); err != nil {
		os.Exit(1)
	}
}
