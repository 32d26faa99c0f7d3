//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// pipeline targets shell out to the built binary so a full collection
// can be driven from mage. Parameters come from the environment:
// PDE_BIO_TERM, PDE_BIO_FROM, PDE_BIO_TO.

func runBinary(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func envArgs() ([]string, error) {
	term := os.Getenv("PDE_BIO_TERM")
	from := os.Getenv("PDE_BIO_FROM")
	to := os.Getenv("PDE_BIO_TO")
	if term == "" || from == "" || to == "" {
		return nil, fmt.Errorf("set PDE_BIO_TERM, PDE_BIO_FROM and PDE_BIO_TO")
	}
	return []string{"--term", term, "--from", from, "--to", to}, nil
}

// Counts builds the binary and runs the count collection stage.
func Counts() error {
	mg.Deps(Build)
	args, err := envArgs()
	if err != nil {
		return err
	}
	return runBinary(append([]string{"counts", "--verbose"}, args...)...)
}

// Articles builds the binary and runs the article fetch stage against
// the default summary table.
func Articles() error {
	mg.Deps(Build)
	return runBinary("articles", "--verbose")
}
