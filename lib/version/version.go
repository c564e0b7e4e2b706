// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for pageant binaries.
//
// The variables are injected with -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/pageant/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	GitCommit = "unknown"
	GitDirty  = "false"
	BuildTime = "unknown"
	Version   = "0.1.0-dev"
)

// Info returns "version (commit[-dirty], build time)".
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Print writes the --version line for binary to stdout, including the
// Go toolchain and target platform.
func Print(binary string) {
	fmt.Printf("%s %s %s/%s %s\n", binary, Info(), runtime.GOOS, runtime.GOARCH, runtime.Version())
}
