package pci

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func fakeSysfs(t *testing.T) string {
	t.Helper()
	root, err := ioutil.TempDir("", "pci")
	if err != nil {
		t.Fatal(err)
	}

	addDevice := func(addr, vendor, device string) {
		dir := filepath.Join(root, "devices", addr)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		ioutil.WriteFile(filepath.Join(dir, "vendor"), []byte(vendor+"\n"), 0644)
		ioutil.WriteFile(filepath.Join(dir, "device"), []byte(device+"\n"), 0644)
		ioutil.WriteFile(filepath.Join(dir, "remove"), []byte(""), 0644)
	}
	addDevice("0000:03:00.0", "0x10ee", "0x903f")
	addDevice("0000:00:1f.3", "0x8086", "0xa348")
	ioutil.WriteFile(filepath.Join(root, "rescan"), []byte(""), 0644)
	return root
}

func TestHotResetRemovesAndRescans(t *testing.T) {
	root := fakeSysfs(t)
	defer os.RemoveAll(root)

	d := &Device{SysfsRoot: root}
	if err := d.HotReset("10ee:903f"); err != nil {
		t.Fatal(err)
	}

	remove, _ := ioutil.ReadFile(filepath.Join(root, "devices", "0000:03:00.0", "remove"))
	if string(remove) != "1" {
		t.Fatalf("remove not written, got %q", remove)
	}
	rescan, _ := ioutil.ReadFile(filepath.Join(root, "rescan"))
	if string(rescan) != "1" {
		t.Fatalf("rescan not written, got %q", rescan)
	}

	// The non-matching function is left alone.
	other, _ := ioutil.ReadFile(filepath.Join(root, "devices", "0000:00:1f.3", "remove"))
	if string(other) != "" {
		t.Fatalf("unrelated device was removed: %q", other)
	}
}

func TestHotResetDeviceNotFound(t *testing.T) {
	root := fakeSysfs(t)
	defer os.RemoveAll(root)

	d := &Device{SysfsRoot: root}
	err := d.HotReset("dead:beef")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("got %v, want ErrDeviceNotFound", err)
	}

	// No match means the bus is never rescanned.
	rescan, _ := ioutil.ReadFile(filepath.Join(root, "rescan"))
	if string(rescan) != "" {
		t.Fatalf("rescan must not run without a match, got %q", rescan)
	}
}

func TestHotResetMalformedID(t *testing.T) {
	d := &Device{SysfsRoot: "/nonexistent"}
	for _, id := range []string{"", "10ee", "10ee:", ":903f", "a:b:c"} {
		if err := d.HotReset(id); !errors.Is(err, ErrDeviceNotFound) {
			t.Fatalf("%q: got %v, want ErrDeviceNotFound", id, err)
		}
	}
}
