// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Meridian - LX200 Command Tool
//
// A CLI tool for sending commands to LX200 compatible telescope
// controllers and inspecting their replies.

package main

import (
	"os"

	"github.com/Thermoquad/meridian/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
