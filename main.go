package main

import (
	"log"

	"github.com/anoixa/image-gallery/cmd"
	"github.com/anoixa/image-gallery/config"
)

func main() {
	log.Printf("image gallery %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
