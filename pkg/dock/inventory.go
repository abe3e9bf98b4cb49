package dock

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/ryanuber/go-glob"
	"gopkg.in/yaml.v3"

	"github.com/dockfw/dockfw/pkg/ec"
	"github.com/dockfw/dockfw/pkg/hid"
)

// An Entry represents a single known dock in an Inventory.
type Entry struct {
	Name           string `yaml:"name"`
	Serial         string `yaml:"serial"`
	Path           string `yaml:"path"`
	SKU            string `yaml:"sku"`
	PackageVersion string `yaml:"package_version"`
}

// An Inventory represents the contents of the inventory file.
type Inventory struct {
	Docks map[string]*Entry `yaml:"docks"`
}

// NewInventory creates a new empty Inventory.
func NewInventory() *Inventory {
	return &Inventory{
		Docks: make(map[string]*Entry),
	}
}

// ReadInventory will attempt to read the inventory file at the specified path.
func ReadInventory(path string) (*Inventory, error) {
	// prepare inventory
	var inv Inventory

	// read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// decode data
	err = yaml.Unmarshal(data, &inv)
	if err != nil {
		return nil, err
	}

	// create map if missing
	if inv.Docks == nil {
		inv.Docks = make(map[string]*Entry)
	}

	return &inv, nil
}

// Save will write the inventory file to the specified path.
func (i *Inventory) Save(path string) error {
	// encode data
	data, err := yaml.Marshal(i)
	if err != nil {
		return err
	}

	// write file
	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return err
	}

	return nil
}

// Filter will return a list of docks that have a serial matching the supplied
// glob pattern.
func (i *Inventory) Filter(pattern string) []*Entry {
	// prepare list
	var entries []*Entry

	// go over all docks
	for serial, entry := range i.Docks {
		// add entry if it matches glob
		if glob.Glob(pattern, serial) || glob.Glob(pattern, entry.Name) {
			entries = append(entries, entry)
		}
	}

	return entries
}

// Collect will discover attached docks and update the inventory with new
// entries. If clear is set, docks that are no longer attached are removed.
func (i *Inventory) Collect(clear bool, log zerolog.Logger) ([]*Entry, error) {
	// enumerate endpoints
	list, err := hid.Enumerate(hid.VendorID, hid.ProductID)
	if err != nil {
		return nil, err
	}

	// prepare list
	var newEntries []*Entry

	// track seen serials
	seen := map[string]bool{}

	// handle all endpoints
	for _, info := range list {
		// open transport
		transport, err := hid.Open(info.Path)
		if err != nil {
			log.Warn().Msgf("skipping %s: %s", info.Path, err.Error())
			continue
		}

		// discover dock
		d, err := Open(transport, log)
		if err != nil {
			_ = transport.Close()
			log.Warn().Msgf("skipping %s: %s", info.Path, err.Error())
			continue
		}

		// get current entry or add one if not existing
		serial := d.Serial()
		entry, ok := i.Docks[serial]
		if !ok {
			entry = &Entry{Serial: serial}
			i.Docks[serial] = entry
			newEntries = append(newEntries, entry)
		}
		seen[serial] = true

		// update fields
		entry.Name = d.Name()
		entry.Path = info.Path
		entry.SKU = d.SKU().String()
		entry.PackageVersion = ec.FormatVersion(d.EC().PackageVersion())

		// close transport
		_ = transport.Close()
	}

	// remove unseen docks if requested
	if clear {
		for serial := range i.Docks {
			if !seen[serial] {
				delete(i.Docks, serial)
			}
		}
	}

	return newEntries, nil
}
