// Copyright 2026 © The Praxis Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/jllopis/praxis/pkg/core"
	"github.com/jllopis/praxis/pkg/statechan"
)

const defaultStateDir = "./praxis-state"

func openTransport(stateDir string) (*statechan.FileTransport, error) {
	return statechan.NewFileTransport(stateDir)
}

func sendLifecycleCommand(name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	stateDir := fs.String("state", defaultStateDir, "agent state directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kinds := map[string]core.CommandKind{
		"start":  core.CommandStart,
		"stop":   core.CommandStop,
		"pause":  core.CommandPause,
		"resume": core.CommandResume,
	}
	kind, ok := kinds[name]
	if !ok {
		return fmt.Errorf("unknown lifecycle command %q", name)
	}

	transport, err := openTransport(*stateDir)
	if err != nil {
		return err
	}
	if err := transport.AppendCommand(core.Command{Kind: kind}); err != nil {
		return err
	}
	fmt.Printf("%s command queued\n", name)
	return nil
}

func sendExecCommand(args []string) error {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	stateDir := fs.String("state", defaultStateDir, "agent state directory")
	action := fs.String("action", "", "action kind to execute")
	params := fs.String("params", "", "action parameters as JSON object")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *action == "" {
		return fmt.Errorf("exec requires -action")
	}

	var parsed map[string]any
	if *params != "" {
		if err := json.Unmarshal([]byte(*params), &parsed); err != nil {
			return fmt.Errorf("invalid -params: %w", err)
		}
	}

	transport, err := openTransport(*stateDir)
	if err != nil {
		return err
	}
	if err := transport.AppendCommand(core.Command{
		Kind:   core.CommandExecuteAction,
		Action: *action,
		Params: parsed,
	}); err != nil {
		return err
	}
	fmt.Printf("exec %s queued\n", *action)
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	stateDir := fs.String("state", defaultStateDir, "agent state directory")
	asJSON := fs.Bool("json", false, "print the raw snapshot as JSON")
	asYAML := fs.Bool("yaml", false, "print the raw snapshot as YAML")
	if err := fs.Parse(args); err != nil {
		return err
	}

	transport, err := openTransport(*stateDir)
	if err != nil {
		return err
	}
	snapshot, ok, err := transport.ReadSnapshot()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no snapshot published yet in %s", *stateDir)
	}

	switch {
	case *asJSON:
		out, err := json.MarshalIndent(snapshot, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case *asYAML:
		out, err := yaml.Marshal(snapshot)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	default:
		printSnapshot(snapshot)
	}
	return nil
}

func printSnapshot(s statechan.Snapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "state\t%s\n", s.LifecycleState)
	fmt.Fprintf(w, "updated\t%s\n", s.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "cycles\t%d\n", s.Runtime.CyclesTotal)
	fmt.Fprintf(w, "events processed\t%d\n", s.Runtime.EventsProcessed)
	fmt.Fprintf(w, "events failed\t%d\n", s.Runtime.EventsFailed)
	fmt.Fprintf(w, "interventions\t%d\n", s.Runtime.InterventionsApplied)
	fmt.Fprintf(w, "queue size\t%d (paused=%t)\n", s.Queue.Size, s.Queue.Paused)
	fmt.Fprintf(w, "tasks scheduled\t%d\n", s.Scheduler.TasksScheduled)
	if s.Scheduler.NextTask != "" {
		fmt.Fprintf(w, "next task\t%s at %s\n", s.Scheduler.NextTask,
			s.Scheduler.NextRunAt.Format("15:04:05"))
	}
	if s.Monitoring.IsStuck {
		fmt.Fprintf(w, "stuck\t%s\n", s.Monitoring.LoopDescription)
	}
	if s.Handoff.PendingRequests > 0 {
		fmt.Fprintf(w, "pending handoffs\t%d\n", s.Handoff.PendingRequests)
	}
	for _, p := range s.Background.Processes {
		fmt.Fprintf(w, "process %s\t%s (runs=%d errors=%d)\n",
			p.Name, p.State, p.IterationCount, p.ErrorCount)
	}
	if n := len(s.RecentCycles); n > 0 {
		last := s.RecentCycles[n-1]
		fmt.Fprintf(w, "last cycle\t#%d %s success=%t\n",
			last.CycleID, last.SelectedAction.Kind, last.ExecutionSuccess)
	}
}
