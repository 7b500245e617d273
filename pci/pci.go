package pci

import (
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
)

var (
	ErrDeviceNotFound = errors.New("pci device not found")
	ErrResetFailed    = errors.New("pci reset failed")
)

const defaultSysfsRoot = "/sys/bus/pci"

// Device locates PCI functions by their vendor:device identifier and
// asks the kernel to re-enumerate them.
type Device struct {
	// SysfsRoot defaults to /sys/bus/pci.
	SysfsRoot string
}

func (d *Device) root() string {
	if d.SysfsRoot != "" {
		return d.SysfsRoot
	}
	return defaultSysfsRoot
}

// HotReset removes every PCI function matching id ("vendor:device",
// hex as printed by lspci -n) from the device tree and triggers a bus
// rescan, so the OS observes the FPGA's new personality without a
// reboot. Returns ErrDeviceNotFound if nothing on the bus matches.
func (d *Device) HotReset(id string) error {
	vendor, device, err := parseID(id)
	if err != nil {
		return err
	}

	entries, err := ioutil.ReadDir(filepath.Join(d.root(), "devices"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResetFailed, err)
	}

	matched := false
	for _, entry := range entries {
		dir := filepath.Join(d.root(), "devices", entry.Name())
		if readAttr(dir, "vendor") != vendor || readAttr(dir, "device") != device {
			continue
		}
		matched = true
		if err := writeAttr(dir, "remove", "1"); err != nil {
			return fmt.Errorf("%w: remove %s: %v", ErrResetFailed, entry.Name(), err)
		}
	}
	if !matched {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	if err := writeAttr(d.root(), "rescan", "1"); err != nil {
		return fmt.Errorf("%w: rescan: %v", ErrResetFailed, err)
	}
	return nil
}

// parseID splits a "10ee:903f" style identifier into the 0x-prefixed
// forms sysfs reports.
func parseID(id string) (vendor, device string, err error) {
	parts := strings.Split(id, ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: malformed identifier %q", ErrDeviceNotFound, id)
	}
	return "0x" + strings.ToLower(parts[0]), "0x" + strings.ToLower(parts[1]), nil
}

func readAttr(dir, name string) string {
	raw, err := ioutil.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func writeAttr(dir, name, value string) error {
	return ioutil.WriteFile(filepath.Join(dir, name), []byte(value), 0200)
}
