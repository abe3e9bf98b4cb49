package main

import (
	"fmt"
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/rs/zerolog"

	"github.com/dockfw/dockfw/pkg/fleet"
)

func main() {
	// parse command
	cmd := parseCommand()

	// set default pattern
	if cmd.aPattern == "" {
		cmd.aPattern = "*"
	}

	// prepare logger
	level := zerolog.WarnLevel
	if cmd.oVerbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	// run desired command
	if cmd.cList {
		list(cmd)
	} else if cmd.cCollect {
		collect(cmd, logger)
	} else if cmd.cInfo {
		info(cmd, logger)
	} else if cmd.cUpdate {
		update(cmd, logger)
	} else if cmd.cRelease {
		release(cmd, logger)
	}
}

func list(cmd *command) {
	// read inventory
	inv := getInventory(cmd)

	// print docks
	tbl := newTable("SERIAL", "NAME", "SKU", "PACKAGE", "PATH")
	for _, entry := range inv.Filter(cmd.aPattern) {
		tbl.add(entry.Serial, entry.Name, entry.SKU, entry.PackageVersion, entry.Path)
	}
	tbl.print()
}

func collect(cmd *command, logger zerolog.Logger) {
	// read inventory
	inv := getInventory(cmd)

	// discover attached docks
	newEntries, err := inv.Collect(cmd.oClear, logger)
	exitIfSet(err)

	// save inventory
	exitIfSet(inv.Save(cmd.oInventory))

	// print new docks
	tbl := newTable("SERIAL", "NAME", "SKU", "PATH")
	for _, entry := range newEntries {
		tbl.add(entry.Serial, entry.Name, entry.SKU, entry.Path)
	}
	tbl.print()
}

func info(cmd *command, logger zerolog.Logger) {
	// open docks
	docks, closer := openDocks(cmd, logger)
	defer closer()

	// print components
	for _, d := range docks {
		fmt.Printf("%s (%s, %s)\n", d.Name(), d.Serial(), d.SKU())
		tbl := newTable("DEVICE", "LOCATION", "VERSION")
		for _, dev := range d.Devices() {
			tbl.add(dev.Name, dev.Location, dev.Version)
		}
		tbl.print()
		fmt.Println()
	}
}

func update(cmd *command, logger zerolog.Logger) {
	// read image
	image, err := os.ReadFile(cmd.aImage)
	exitIfSet(err)

	// open docks
	docks, closer := openDocks(cmd, logger)
	defer closer()
	if len(docks) == 0 {
		exitWithError("no docks matched")
	}

	fmt.Printf("staging %s of firmware for %q on %d dock(s)\n",
		bytefmt.ByteSize(uint64(len(image))), cmd.aComponent, len(docks))

	// stage firmware on all docks
	_, err = fleet.Update(docks, cmd.aComponent, image, cmd.oJobs, func(serial string, status fleet.UpdateStatus) {
		if status.Error != nil {
			fmt.Printf("%s: error: %s\n", serial, status.Error.Error())
		} else {
			fmt.Printf("%s: %.0f%%\n", serial, status.Progress*100)
		}
	})
	exitIfSet(err)

	fmt.Println("staged successfully, firmware applies on the next dock reboot")
}

func release(cmd *command, logger zerolog.Logger) {
	// open docks
	docks, closer := openDocks(cmd, logger)
	defer closer()

	// give up ownership
	for _, d := range docks {
		exitIfSet(d.Release())
		fmt.Printf("%s: released\n", d.Serial())
	}
}
