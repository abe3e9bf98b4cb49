package main

import (
	"strconv"

	"github.com/docopt/docopt-go"
)

var usage = `dockfw - dock firmware update tool

Usage:
  dockfw list [<pattern>] [--inventory=<path>]
  dockfw collect [--clear --inventory=<path> --verbose]
  dockfw info [<pattern>] [--inventory=<path> --verbose]
  dockfw update <component> <image> [<pattern>] [--jobs=<n> --inventory=<path> --verbose]
  dockfw release [<pattern>] [--inventory=<path> --verbose]

Options:
  -i --inventory=<path>  Path of the inventory file [default: dockfw.yml].
  -j --jobs=<n>          Number of parallel dock updates [default: 1].
  -c --clear             Remove detached docks from the inventory.
  -v --verbose           Enable debug logging.
  -h --help              Show this screen.
`

type command struct {
	// commands
	cList    bool
	cCollect bool
	cInfo    bool
	cUpdate  bool
	cRelease bool

	// arguments
	aPattern   string
	aComponent string
	aImage     string

	// options
	oInventory string
	oJobs      int
	oClear     bool
	oVerbose   bool
}

func parseCommand() *command {
	a, err := docopt.Parse(usage, nil, true, "", false)
	exitIfSet(err)

	return &command{
		// commands
		cList:    getBool(a["list"]),
		cCollect: getBool(a["collect"]),
		cInfo:    getBool(a["info"]),
		cUpdate:  getBool(a["update"]),
		cRelease: getBool(a["release"]),

		// arguments
		aPattern:   getString(a["<pattern>"]),
		aComponent: getString(a["<component>"]),
		aImage:     getString(a["<image>"]),

		// options
		oInventory: getString(a["--inventory"]),
		oJobs:      getInt(a["--jobs"]),
		oClear:     getBool(a["--clear"]),
		oVerbose:   getBool(a["--verbose"]),
	}
}

func getBool(field interface{}) bool {
	val, _ := field.(bool)
	return val
}

func getString(field interface{}) string {
	str, _ := field.(string)
	return str
}

func getInt(field interface{}) int {
	str, _ := field.(string)
	val, _ := strconv.Atoi(str)
	return val
}
