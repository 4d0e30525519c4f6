// Command scpi-shell is an interactive console for SCPI instruments.
//
// It opens one driver session against a VISA-style resource string and
// exposes both the composed attribute surface and raw SCPI passthrough.
//
// Usage:
//
//	scpi-shell [flags]
//
// Flags:
//
//	-resource string   Resource string, e.g. TCPIP0::192.168.1.50::INSTR
//	-class string      Instrument class: scope, fgen (default "scope")
//	-config string     YAML configuration file path
//	-trace string      Write a CBOR session trace to this file
//	-timeout duration  Query timeout (default 5s)
//	-no-poll           Disable SYST:ERR? polling after commands
//	-sim               Connect to a built-in simulated oscilloscope
//
// Examples:
//
//	# Connect to a LAN instrument
//	scpi-shell -resource "TCPIP0::192.168.1.50::INSTR"
//
//	# Explore the attribute surface without hardware
//	scpi-shell -sim
//
//	# Record a session trace for scpi-trace
//	scpi-shell -resource "GPIB0::7::INSTR" -trace session.strace
//
// Interactive Commands:
//
//	idn                  - Show instrument identity
//	groups               - List capability groups
//	attrs                - List attribute names
//	get <name>           - Read an attribute (e.g. get channel[1].scale)
//	set <name> <value>   - Write an attribute
//	invalidate <name>    - Mark a cached attribute stale
//	reset                - Issue *RST and invalidate the cache
//	save <file>          - Save the instrument setup blob to a file
//	restore <file>       - Restore a setup blob from a file
//	:<command>           - Raw SCPI passthrough (query if it ends in ?)
//	quit                 - Close the session and exit
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/scpi-protocol/scpi-go/internal/sim"
	"github.com/scpi-protocol/scpi-go/pkg/capability"
	"github.com/scpi-protocol/scpi-go/pkg/driver"
	"github.com/scpi-protocol/scpi-go/pkg/log"
	"github.com/scpi-protocol/scpi-go/pkg/model"
	"github.com/scpi-protocol/scpi-go/pkg/resource"
	"github.com/scpi-protocol/scpi-go/pkg/transport"
)

func main() {
	resourceStr := flag.String("resource", "", "Resource string, e.g. TCPIP0::192.168.1.50::INSTR")
	className := flag.String("class", "scope", "Instrument class: scope, fgen")
	configPath := flag.String("config", "", "YAML configuration file path")
	tracePath := flag.String("trace", "", "Write a CBOR session trace to this file")
	timeout := flag.Duration("timeout", 5*time.Second, "Query timeout")
	noPoll := flag.Bool("no-poll", false, "Disable SYST:ERR? polling after commands")
	useSim := flag.Bool("sim", false, "Connect to a built-in simulated oscilloscope")
	flag.Parse()

	if err := run(*resourceStr, *className, *configPath, *tracePath, *timeout, *noPoll, *useSim); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(resourceStr, className, configPath, tracePath string, timeout time.Duration, noPoll, useSim bool) error {
	class, err := classByName(className)
	if err != nil {
		return err
	}

	cfg := driver.DefaultConfig()
	if configPath != "" {
		cfg, err = driver.LoadConfig(configPath)
		if err != nil {
			return err
		}
	}
	cfg.Channel.QueryTimeout = timeout
	if noPoll {
		cfg.Channel.PollErrorQueue = false
	}

	if tracePath != "" {
		trace, err := log.NewFileLogger(tracePath)
		if err != nil {
			return err
		}
		defer trace.Close()
		cfg.Trace = trace
	}

	registry := transport.DefaultRegistry()
	if useSim {
		if resourceStr == "" {
			resourceStr = "TCPIP0::sim::INSTR"
		}
		registry = simRegistry()
	}
	if resourceStr == "" {
		return fmt.Errorf("-resource required (or -sim)")
	}

	drv := driver.NewWithRegistry(class, registry)
	if err := drv.Initialize(resourceStr, cfg); err != nil {
		return fmt.Errorf("initialize %s: %w", resourceStr, err)
	}
	defer drv.Close()

	fmt.Printf("Connected: %s\n", drv.Identity())
	return repl(drv)
}

func classByName(name string) (model.ClassDecl, error) {
	switch name {
	case "scope":
		return capability.ScopeClass(), nil
	case "fgen":
		return capability.FgenClass(), nil
	default:
		return model.ClassDecl{}, fmt.Errorf("unknown class %q (scope, fgen)", name)
	}
}

func repl(drv *driver.Driver) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "scpi> ",
		HistoryFile:     filepathHistory(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil { // io.EOF
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		if err := dispatch(drv, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func filepathHistory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.scpi-shell_history"
}

func dispatch(drv *driver.Driver, line string) error {
	// Raw SCPI passthrough.
	if strings.HasPrefix(line, ":") || strings.HasPrefix(line, "*") {
		if strings.HasSuffix(line, "?") {
			response, err := drv.Channel().Query(line)
			if err != nil {
				return err
			}
			fmt.Println(response)
			return nil
		}
		return drv.Channel().Send(line)
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		printHelp()
		return nil

	case "idn":
		fmt.Println(drv.Identity())
		return nil

	case "groups":
		for _, name := range drv.GroupNames() {
			if n := drv.GroupCount(name); n > 0 {
				fmt.Printf("%s (%d instances)\n", name, n)
			} else {
				fmt.Println(name)
			}
		}
		return nil

	case "attrs":
		for _, name := range drv.AttributeNames() {
			fmt.Println(name)
		}
		return nil

	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("usage: get <name>")
		}
		v, err := drv.Get(fields[1])
		if err != nil {
			return err
		}
		fmt.Printf("%v\n", v)
		return nil

	case "set":
		if len(fields) < 3 {
			return fmt.Errorf("usage: set <name> <value>")
		}
		return setAttribute(drv, fields[1], strings.Join(fields[2:], " "))

	case "invalidate":
		if len(fields) != 2 {
			return fmt.Errorf("usage: invalidate <name>")
		}
		drv.Invalidate(fields[1])
		return nil

	case "reset":
		return drv.Reset()

	case "save":
		if len(fields) != 2 {
			return fmt.Errorf("usage: save <file>")
		}
		blob, err := drv.SaveSetup()
		if err != nil {
			return err
		}
		return os.WriteFile(fields[1], blob, 0o644)

	case "restore":
		if len(fields) != 2 {
			return fmt.Errorf("usage: restore <file>")
		}
		blob, err := os.ReadFile(fields[1])
		if err != nil {
			return err
		}
		return drv.RestoreSetup(blob)

	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

// setAttribute guesses the value type from its spelling and retries as a
// plain string when the attribute's domain wants one.
func setAttribute(drv *driver.Driver, name, text string) error {
	var value any = text
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		value = f
	} else if b, ok := parseBool(text); ok {
		value = b
	}

	err := drv.Set(name, value)
	if err != nil && value != any(text) && errors.Is(err, model.ErrValueType) {
		return drv.Set(name, text)
	}
	return err
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

func printHelp() {
	fmt.Print(`Commands:
  idn                  Show instrument identity
  groups               List capability groups
  attrs                List attribute names
  get <name>           Read an attribute
  set <name> <value>   Write an attribute
  invalidate <name>    Mark a cached attribute stale
  reset                Issue *RST and invalidate the cache
  save <file>          Save the instrument setup blob
  restore <file>       Restore a setup blob
  :<command>           Raw SCPI passthrough
  quit                 Exit
`)
}

// simRegistry wires every resolution to one simulated oscilloscope.
func simRegistry() *transport.Registry {
	inst := sim.New("Example Instruments,EX2040,SN0001,1.2.3", map[string]string{
		":system:channel:count":         "4",
		":trigger:edge:source":          "CHAN1",
		":trigger:edge:level":           "0e+00",
		":trigger:edge:slope":           "POS",
		":trigger:sweep":                "AUTO",
		":horizontal:mode":              "AUTO",
		":horizontal:mode:scale":        "1e-06",
		":horizontal:mode:samplerate":   "1e+09",
		":horizontal:mode:recordlength": "1e+04",
		":horizontal:roll":              "0",
		":channel1:display":             "1",
		":channel1:scale":               "1e+00",
		":channel1:offset":              "0e+00",
		":channel1:coupling":            "DC",
		":channel1:probe":               "1e+01",
		":channel2:display":             "0",
		":channel2:scale":               "5e-01",
		":channel2:offset":              "0e+00",
		":channel2:coupling":            "AC",
		":channel2:probe":               "1e+00",
		":channel3:display":             "0",
		":channel3:scale":               "1e+00",
		":channel3:offset":              "0e+00",
		":channel3:coupling":            "DC",
		":channel3:probe":               "1e+00",
		":channel4:display":             "0",
		":channel4:scale":               "1e+00",
		":channel4:offset":              "0e+00",
		":channel4:coupling":            "DC",
		":channel4:probe":               "1e+00",
		":waveform:preamble":            "preamble",
		":waveform:source":              "CHAN1",
	})

	r := transport.NewRegistry()
	open := func(resource.Descriptor, transport.Options) (transport.Binding, error) {
		return inst, nil
	}
	r.Register(resource.KindLAN, open)
	r.Register(resource.KindGeneric, open)
	return r
}
