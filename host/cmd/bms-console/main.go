package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bqconsole/console"
	"bqconsole/core"
	"bqconsole/devices/simbq"
	"bqconsole/host/config"
	"bqconsole/host/serial"
	"bqconsole/store"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Serial device path; empty uses stdin/stdout")
	verbose    = flag.Bool("verbose", false, "Log debug output to stderr")
)

const defaultEEPROMPath = "bms-eeprom.bin"

func main() {
	flag.Parse()

	cfg := &config.Config{EEPROM: config.EEPROMConfig{Path: defaultEEPROMPath}}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}
	if *device != "" {
		cfg.Console.Device = *device
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	core.SetDebugWriter(func(s string) { log.Print(s) })

	var (
		in        io.Reader = os.Stdin
		out       io.Writer = os.Stdout
		translate           = true
	)
	if cfg.Console.Device != "" {
		port, err := serial.Open(&serial.Config{
			Device:      cfg.Console.Device,
			Baud:        cfg.Console.Baud,
			ReadTimeout: cfg.Console.ReadTimeoutMs,
		})
		if err != nil {
			log.Fatalf("serial open failed: %v", err)
		}
		defer port.Close()
		in, out = port, port
		translate = cfg.Console.TranslateNewline
	}

	eeprom, err := store.OpenFile(cfg.EEPROM.Path, int64(cfg.EEPROM.Size))
	if err != nil {
		log.Fatalf("eeprom open failed: %v", err)
	}
	defer eeprom.Close()

	monitor := simbq.New(simbq.Config{
		Cells:     cfg.Simulator.Cells,
		CellMV:    uint16(cfg.Simulator.CellMV),
		CurrentMA: cfg.Simulator.CurrentMA,
		TempTenth: 250,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rx := serial.NewReceiver(in, translate)
	start := time.Now()
	platform := &hostPlatform{}

	for {
		platform.resetPending = false
		c, err := console.New(console.Options{
			Out:      out,
			Monitor:  monitor,
			Store:    store.New(eeprom, nil),
			Platform: platform,
		})
		if err != nil {
			log.Fatalf("console init failed: %v", err)
		}
		if *verbose {
			core.SetDebugEnabled(true)
		}
		c.Begin()

		if !run(ctx, c, rx, start, platform) {
			return
		}
		log.Print("console reset")
	}
}

// run is the cooperative control loop. It returns true when the console
// asked for a reset.
func run(ctx context.Context, c *console.Console, rx *serial.Receiver, start time.Time, p *hostPlatform) bool {
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "interrupted")
			return false
		default:
		}

		core.SetMillis(uint32(time.Since(start).Milliseconds()))

		busy := c.Recv(rx)
		c.Update(core.Millis(), false)

		switch {
		case p.resetPending:
			return true
		case c.Halted():
			log.Print("pack is shut down, exiting")
			return false
		case rx.Err() != nil && rx.Buffered() == 0:
			// run a pending line before leaving
			c.Recv(rx)
			c.Recv(rx)
			if rx.Err() != io.EOF {
				log.Printf("console input: %v", rx.Err())
			}
			return false
		}

		if !busy {
			time.Sleep(time.Millisecond)
		}
	}
}

// hostPlatform emulates the MCU actions. A reset restarts the console on
// the same EEPROM image.
type hostPlatform struct {
	resetPending bool
}

func (p *hostPlatform) Reset() {
	p.resetPending = true
}

func (p *hostPlatform) EnterBootloader() {
	log.Print("bootloader entry is not available on the host")
}
