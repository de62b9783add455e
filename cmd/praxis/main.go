// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

// Command praxis runs the autonomous agent process and controls a running
// one through its shared state directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "run":
		err = runAgent(ctx, rest)
	case "status":
		err = runStatus(rest)
	case "start", "stop", "pause", "resume":
		err = sendLifecycleCommand(cmd, rest)
	case "exec":
		err = sendExecCommand(rest)
	case "version":
		fmt.Println("praxis", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`praxis - autonomous agent runtime

Usage:
  praxis run [-config path]           run the agent process
  praxis status [-state dir] [-json]  show the last published snapshot
  praxis start [-state dir]           command a running agent to start
  praxis stop [-state dir]            command a running agent to stop
  praxis pause [-state dir]           command a running agent to pause
  praxis resume [-state dir]          command a running agent to resume
  praxis exec [-state dir] -action kind [-params json]
                                      execute a single action immediately
  praxis version                      print the version
`)
}
