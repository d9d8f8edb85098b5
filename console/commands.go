package console

import (
	"runtime"

	"bqconsole/bms"
	"bqconsole/core"
	"bqconsole/protocol"
	"bqconsole/store"
)

const helpWidth = 24

type builtin struct {
	name  string
	usage string
	run   func(c *Console)
}

// Built-in commands in dispatch order. Parameter commands follow them.
var builtins = []builtin{
	{"conf", "print all configuration", (*Console).printAllConf},
	{"stats", "print all statistics", (*Console).printAllStats},
	{"stats_save", "save statistics to EEPROM", (*Console).cmdStatsSave},
	{"restore", "restore default configuration", (*Console).cmdRestore},
	{"save", "save configuration to EEPROM", (*Console).cmdSave},
	{"bqregs", "print monitor registers", (*Console).cmdRegisters},
	{"print", "print battery status", (*Console).printTelemetry},
	{"wdreset", "save statistics and reset", (*Console).cmdReset},
	{"bootloader", "enter firmware update mode", (*Console).cmdBootloader},
	{"freemem", "print free memory", (*Console).cmdFreeMem},
	{"epformat", "erase the whole EEPROM", (*Console).cmdFormat},
	{"help", "print this help", (*Console).cmdHelp},
	{"shutdown", "save statistics and power down the pack", (*Console).cmdShutdown},
}

func (c *Console) registerCommands() error {
	for _, b := range builtins {
		b := b
		err := c.commands.Register(b.name, b.usage, func(arg string) {
			if arg != "" {
				c.writeHelp(b.name, b.usage)
				return
			}
			b.run(c)
		})
		if err != nil {
			return err
		}
	}

	params := bms.Params()
	for i := range params {
		p := &params[i]
		if err := c.commands.Register(p.Name, p.Usage, func(arg string) {
			c.setParam(p, arg)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) writeHelp(name, usage string) {
	c.println(" " + core.PadRight(name, helpWidth) + usage)
}

func (c *Console) cmdHelp() {
	c.print("Available commands:" + protocol.EOL)
	for _, cmd := range c.commands.Commands() {
		c.writeHelp(cmd.Name, cmd.Usage)
	}
}

func (c *Console) cmdStatsSave() {
	c.saveStats()
	c.println("stats saved")
}

func (c *Console) cmdSave() {
	c.saveConf()
	c.println("conf saved")
}

func (c *Console) cmdRestore() {
	c.conf.Reset()
	c.monitor.Configure(&c.conf)
	core.SetDebugEnabled(c.conf.Debug)
	c.applyProtections()
	c.saveConf()
	c.println("conf restored")
}

func (c *Console) cmdRegisters() {
	c.monitor.PrintRegisters(c.out)
}

func (c *Console) cmdReset() {
	c.saveStats()
	c.println("reset")
	c.platform.Reset()
}

func (c *Console) cmdBootloader() {
	c.println("bootloader")
	c.platform.EnterBootloader()
}

func (c *Console) cmdFreeMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	free := ms.HeapSys - ms.HeapInuse
	c.println(" Free RAM:" + core.Itoa(int64(free)))
}

func (c *Console) cmdFormat() {
	c.print("Formatting EEPROM")
	err := store.Format(c.store.Device(), store.Erased, func(int64) {
		c.print(".")
	})
	c.print(protocol.EOL)
	if err != nil {
		c.println("format failed: " + err.Error())
		return
	}
	c.println("done")
}

func (c *Console) cmdShutdown() {
	c.shutdown("shutdown requested")
}
