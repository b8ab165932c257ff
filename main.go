package main

import (
	"log"

	"github.com/luoxir/photo-store/cmd"
	"github.com/luoxir/photo-store/config"
)

func main() {
	log.Printf("photo-store %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
