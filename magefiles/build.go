// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main provides build targets for the contactbook project using Mage.
//
// Usage:
//
//	mage build             Compile the contactbook binary to bin/
//	mage test:all          Run all tests
//	mage test:unit         Run tests without the race detector
//	mage test:race         Run all tests with the race detector
//	mage test:cover        Write a coverage profile to bin/
//	mage lint              Run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install contactbook to GOPATH/bin
//	mage stats             Print Go LOC and documentation word counts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "contactbook"
	binaryDir  = "bin"
	cmdDir     = "./cmd/contactbook"
	versionVar = "github.com/mesh-intelligence/contactbook/pkg/contactbook.Version"
)

// Build compiles the contactbook binary to bin/. CONTACTBOOK_VERSION, when
// set, is stamped into the version command.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v"}
	if v := os.Getenv("CONTACTBOOK_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	args = append(args, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
	return sh.RunV(binGo, args...)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
