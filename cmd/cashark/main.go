// Command cashark replays a pcap capture of Channel Access traffic and
// steps through the decoded commands interactively, the Go counterpart to
// caproto's caproto-shark CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/epics-base/go-ca/internal/cashark"
	"github.com/epics-base/go-ca/pkg/calog"
)

func main() {
	var (
		path    = flag.String("r", "", "pcap file to read (required)")
		dump    = flag.Bool("dump", false, "print every decoded command instead of stepping interactively")
		logging = flag.String("log-level", "INFO", "calog level: DEBUG, INFO, WARN, ERROR")
	)
	flag.Parse()

	level, err := calog.LevelFromString(*logging)
	if err != nil {
		level = calog.INFO
	}
	calog.Init(level)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: cashark -r capture.pcap")
		os.Exit(2)
	}

	f, err := os.Open(*path)
	if err != nil {
		calog.Fatal("open %s: %v", *path, err)
	}
	defer f.Close()

	var observations []cashark.Observation
	sh := cashark.New()
	if err := sh.Run(f, func(o cashark.Observation) {
		observations = append(observations, o)
	}); err != nil {
		calog.Fatal("shark: %v", err)
	}

	if *dump {
		for _, o := range observations {
			printObservation(o)
		}
		return
	}

	step(observations)
}

func printObservation(o cashark.Observation) {
	fmt.Printf("%s %s:%d -> :%d  %s\n", o.Transport, o.SrcIP, o.SrcPort, o.DstPort, o.Command.CommandName())
}

// step runs a terse next/dump/quit REPL over the decoded observations.
func step(observations []cashark.Observation) {
	input := liner.NewLiner()
	defer input.Close()
	input.SetCtrlCAborts(true)

	fmt.Printf("%d commands loaded. Commands: next, dump, quit\n", len(observations))

	i := 0
	for {
		line, err := input.Prompt("cashark> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return
		}
		line = strings.TrimSpace(line)
		input.AppendHistory(line)

		switch line {
		case "", "next", "n":
			if i >= len(observations) {
				fmt.Println("end of capture")
				continue
			}
			printObservation(observations[i])
			i++
		case "dump":
			for ; i < len(observations); i++ {
				printObservation(observations[i])
			}
		case "quit", "q":
			return
		default:
			fmt.Println("unrecognized command; try next, dump, or quit")
		}
	}
}
