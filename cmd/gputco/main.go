package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/opencost/gputco/pkg/cmd"
)

func main() {
	// runs serve by default; see the github.com/opencost/gputco/pkg/cmd package for details
	if err := cmd.Execute(nil); err != nil {
		log.Error().Err(err).Msg("gputco exited with an error")
		os.Exit(1)
	}
}
