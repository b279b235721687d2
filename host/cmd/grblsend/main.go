// grblsend is the interactive host-side sender: a serial console that
// streams G-code files, issues realtime commands, and passes `$` system
// commands and bare G-code lines through to the controller.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"

	"grblgo/host/send"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "serial device path")
	verbose = flag.Bool("verbose", false, "print unsolicited controller output")
)

func main() {
	flag.Parse()

	fmt.Printf("connecting to %s...\n", *device)
	sender, err := send.Connect(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer sender.Close()
	if *verbose {
		sender.OnPush = func(line string) { fmt.Printf("<< %s\n", line) }
	}
	fmt.Println("connected; 'help' lists commands, 'quit' exits")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Command lines are tokenized with shell quoting so file paths
		// with spaces work: send "jobs/front panel.nc"
		args, err := shlex.Split(line)
		if err != nil {
			fmt.Printf("parse: %v\n", err)
			continue
		}

		switch args[0] {
		case "quit", "exit", "q":
			return

		case "help", "?":
			printHelp()

		case "send":
			if len(args) != 2 {
				fmt.Println("usage: send <file>")
				continue
			}
			streamFile(sender, args[1])

		case "status", "s":
			frame, err := sender.Status()
			if err != nil {
				fmt.Printf("status: %v\n", err)
				continue
			}
			fmt.Println(frame)

		case "hold":
			reportRealtime(sender.Realtime(send.RealtimeFeedHold))
		case "resume":
			reportRealtime(sender.Realtime(send.RealtimeCycleStart))
		case "reset":
			reportRealtime(sender.Realtime(send.RealtimeReset))
		case "jogcancel":
			reportRealtime(sender.Realtime(send.RealtimeJogCancel))

		default:
			// Anything else is a raw line for the controller: bare
			// G-code, `$`-commands, `$J=` jogs. Send the original text,
			// not the tokenized form, so G-code spacing is preserved.
			resp, err := sender.SendLine(line)
			if err != nil {
				fmt.Printf("send: %v\n", err)
				continue
			}
			fmt.Println(resp.Raw)
		}
	}
}

func streamFile(sender *send.Sender, path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("open: %v\n", err)
		return
	}
	defer f.Close()

	lines, err := sender.Stream(f)
	if err != nil {
		fmt.Printf("stream stopped: %v\n", err)
		return
	}
	fmt.Printf("done: %d lines read\n", lines)
}

func reportRealtime(err error) {
	if err != nil {
		fmt.Printf("realtime: %v\n", err)
	}
}

func printHelp() {
	fmt.Println(`commands:
  send <file>    stream a G-code file (quote paths with spaces)
  status, s      request a <...> status report
  hold           feed hold (!)
  resume         cycle start (~)
  reset          soft reset (ctrl-X)
  jogcancel      cancel an active jog
  quit           exit
anything else is sent to the controller verbatim ($$, $H, $J=..., G1 X10 F600, ...)`)
}
