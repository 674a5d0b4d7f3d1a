package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/towel808/towel"
	"github.com/towel808/towel/catalog"
	"github.com/towel808/towel/cmd"
	"github.com/towel808/towel/control"
)

type command struct {
	usage string
	run   func(c *control.Controller, args []string) error
}

var commands = map[string]command{
	"on": {"on <key> [velocity]", func(c *control.Controller, args []string) error {
		key, err := intArg(args, 0, -1)
		if err != nil {
			return err
		}
		velocity, err := intArg(args, 1, 100)
		if err != nil {
			return err
		}
		if !c.NoteOn(key, float32(velocity)/127) {
			return fmt.Errorf("could not play note %d", key)
		}
		return nil
	}},
	"off": {"off <key>", func(c *control.Controller, args []string) error {
		key, err := intArg(args, 0, -1)
		if err != nil {
			return err
		}
		c.NoteOff(key)
		return nil
	}},
	"samples": {"samples", func(c *control.Controller, args []string) error {
		if err := c.Refresh(); err != nil {
			return err
		}
		for _, name := range c.SampleNames() {
			marker := " "
			if name == c.CurrentSample() {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, catalog.DisplayName(name))
		}
		return nil
	}},
	"sample": {"sample <name>", func(c *control.Controller, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("missing sample name")
		}
		if !c.RequestLoadSample(strings.Join(args, " ")) {
			return fmt.Errorf("too many samples loading")
		}
		return nil
	}},
	"env": {"env <attack> <decay> <sustain> <release>", func(c *control.Controller, args []string) error {
		if len(args) != 4 {
			return fmt.Errorf("expected 4 values")
		}
		var v [4]float64
		for i := range v {
			f, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q", args[i])
			}
			v[i] = f
		}
		c.SetEnvelope(v[0], v[1], v[2], v[3])
		return nil
	}},
	"cut": {"cut on|off", func(c *control.Controller, args []string) error {
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return fmt.Errorf("expected on or off")
		}
		c.SetCut(args[0] == "on")
		return nil
	}},
	"keys": {"keys", func(c *control.Controller, args []string) error {
		var held []string
		for note := 0; note < towel.NumNotes; note++ {
			if c.KeyDown(note) {
				held = append(held, strconv.Itoa(note))
			}
		}
		fmt.Println(strings.Join(held, " "))
		return nil
	}},
	"state": {"state", func(c *control.Controller, args []string) error {
		b, err := c.MarshalState()
		if err != nil {
			return err
		}
		fmt.Print(string(b))
		return nil
	}},
}

func commandNames() []string {
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return append(names, "quit")
}

// console reads commands from standard input until quit, end of input or ctx
// being done.
func console(ctx context.Context, c *control.Controller, quit func()) {
	defer quit()
	scanner := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil && scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" {
			return
		}
		entry, ok := commands[fields[0]]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown command %q, try one of: %s\n", fields[0], strings.Join(commandNames(), ", "))
			continue
		}
		if err := entry.run(c, fields[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "usage: %s: %v\n", entry.usage, err)
		}
	}
}

func intArg(args []string, i, def int) (int, error) {
	if i >= len(args) {
		if def < 0 {
			return 0, fmt.Errorf("missing argument")
		}
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[i])
	}
	return v, nil
}

func scheduleNote(ctx context.Context, c *control.Controller, n cmd.Note) {
	after := func(seconds float64, f func()) {
		time.AfterFunc(time.Duration(seconds*float64(time.Second)), func() {
			if ctx.Err() == nil {
				f()
			}
		})
	}
	after(n.Start, func() { c.NoteOn(n.Key, float32(n.Velocity)/127) })
	after(n.Start+n.Duration, func() { c.NoteOff(n.Key) })
}
