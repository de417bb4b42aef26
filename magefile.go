//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
// If not set, running mage will list available targets
var Default = Build

func Build() error {
	mg.Deps(BuildConverter)
	fmt.Println("Compilation finished")
	return nil
}

func BuildConverter() error {
	fmt.Println("Building oephys2nwb executable...")
	cmd := cgoCommand("go", "build", "-o", "./bin/oephys2nwb", ".")
	return cmd.Run()
}

func Test() error {
	fmt.Println("Running tests...")
	cmd := cgoCommand("go", "test", "./...")
	return cmd.Run()
}

func cgoCommand(name string, args ...string) *exec.Cmd {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
