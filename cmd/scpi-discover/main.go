// Command scpi-discover finds SCPI instruments on the local network.
//
// It browses the LXI DNS-SD service types over mDNS and prints one line
// per instrument with the resource string a driver can open it with.
//
// Usage:
//
//	scpi-discover [flags]
//
// Flags:
//
//	-timeout duration   How long to browse (default 10s)
//	-service string     Browse a single service type, e.g. _scpi-raw._tcp
//	-iface string       Network interface to browse on (default all)
//	-model string       Stop at the first instrument with this model name
//	-manufacturer string  Only show instruments from this manufacturer
//	-usb                Enumerate USBTMC devices instead of browsing mDNS
//
// Examples:
//
//	# Scan for 10 seconds and list everything
//	scpi-discover
//
//	# Find a specific instrument
//	scpi-discover -model EX2040 -timeout 30s
//
//	# Raw socket instruments only
//	scpi-discover -service _scpi-raw._tcp
//
//	# List instruments on the local USB buses
//	scpi-discover -usb
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/scpi-protocol/scpi-go/pkg/discovery"
)

func main() {
	timeout := flag.Duration("timeout", discovery.BrowseTimeout, "How long to browse")
	service := flag.String("service", "", "Browse a single service type, e.g. _scpi-raw._tcp")
	iface := flag.String("iface", "", "Network interface to browse on (default all)")
	model := flag.String("model", "", "Stop at the first instrument with this model name")
	manufacturer := flag.String("manufacturer", "", "Only show instruments from this manufacturer")
	usb := flag.Bool("usb", false, "Enumerate USBTMC devices instead of browsing mDNS")
	flag.Parse()

	if *usb {
		if err := runUSB(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*timeout, *service, *iface, *model, *manufacturer); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runUSB() error {
	instruments, err := discovery.FindUSB()
	if err != nil {
		return err
	}
	if len(instruments) == 0 {
		fmt.Fprintln(os.Stderr, "No instruments found")
		return nil
	}
	for _, inst := range instruments {
		fmt.Println(inst)
	}
	return nil
}

func run(timeout time.Duration, service, iface, model, manufacturer string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	config := discovery.DefaultBrowserConfig()
	config.BrowseTimeout = timeout
	config.Interface = iface

	browser := discovery.NewMDNSBrowser(config)
	defer browser.Stop()

	if model != "" {
		inst, err := browser.FindByModel(ctx, model)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("no %s found within %s", model, timeout)
			}
			return err
		}
		fmt.Println(inst)
		return nil
	}

	var services []string
	if service != "" {
		services = []string{service}
	}

	results, err := browser.Browse(ctx, services...)
	if err != nil {
		return err
	}
	if manufacturer != "" {
		results = discovery.FilterResults(results, discovery.FilterByManufacturer(manufacturer))
	}

	found := 0
	for inst := range results {
		found++
		fmt.Println(inst)
	}

	if found == 0 {
		fmt.Fprintln(os.Stderr, "No instruments found")
	}
	return nil
}
