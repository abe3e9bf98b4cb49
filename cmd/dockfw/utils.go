package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/dockfw/dockfw/pkg/dock"
	"github.com/dockfw/dockfw/pkg/hid"
)

func exitIfSet(errs ...error) {
	for _, err := range errs {
		if err != nil {
			exitWithError(err.Error())
		}
	}
}

func exitWithError(str string) {
	_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", str)
	os.Exit(1)
}

func getInventory(cmd *command) *dock.Inventory {
	// read inventory or start empty
	inv, err := dock.ReadInventory(cmd.oInventory)
	if err != nil {
		if os.IsNotExist(err) {
			return dock.NewInventory()
		}
		exitIfSet(err)
	}

	return inv
}

func openDocks(cmd *command, logger zerolog.Logger) ([]*dock.Dock, func()) {
	// read inventory
	inv := getInventory(cmd)

	// open matching docks
	var docks []*dock.Dock
	var transports []*hid.Transport
	for _, entry := range inv.Filter(cmd.aPattern) {
		transport, err := hid.Open(entry.Path)
		if err != nil {
			logger.Warn().Msgf("skipping %s: %s", entry.Serial, err.Error())
			continue
		}

		d, err := dock.Open(transport, logger)
		if err != nil {
			_ = transport.Close()
			logger.Warn().Msgf("skipping %s: %s", entry.Serial, err.Error())
			continue
		}

		docks = append(docks, d)
		transports = append(transports, transport)
	}

	// prepare closer
	closer := func() {
		for _, transport := range transports {
			_ = transport.Close()
		}
	}

	return docks, closer
}
