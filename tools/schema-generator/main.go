// Command schema-generator writes the JSON schema for uptask.yml so editors
// can validate and complete configuration files.
package main

import (
	"os"
	"path/filepath"

	"github.com/grovetools/uptask/config"
	"github.com/grovetools/uptask/logging"
	"github.com/spf13/pflag"
)

func main() {
	out := pflag.String("out", "schema/definitions/uptask.schema.json", "Output file")
	pflag.Parse()

	log := logging.NewLogger("schema-generator")

	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.WithError(err).Fatal("Error generating schema")
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		log.WithError(err).Fatal("Error creating schema directory")
	}
	if err := os.WriteFile(*out, append(schemaBytes, '\n'), 0644); err != nil {
		log.WithError(err).Fatal("Error writing schema file")
	}

	log.WithField("path", *out).Info("Generated config schema")
}
