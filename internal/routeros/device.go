package routeros

import (
	"fmt"
	"strconv"
	"strings"
)

// Device wraps a session with the higher-level operations deployments use.
type Device struct {
	sess Session
}

func NewDevice(sess Session) *Device {
	return &Device{sess: sess}
}

func (d *Device) Close() error {
	return d.sess.Close()
}

// Address is one entry of the device's IP address table.
type Address struct {
	Address   string // CIDR form, e.g. "10.0.0.2/24"
	Interface string
}

// Addresses lists the device's IP address table.
func (d *Device) Addresses() ([]Address, error) {
	reply, err := d.sess.Run("/ip/address/print")
	if err != nil {
		return nil, err
	}
	addrs := make([]Address, 0, len(reply.Re))
	for _, re := range reply.Re {
		addrs = append(addrs, Address{
			Address:   re.Map["address"],
			Interface: re.Map["interface"],
		})
	}
	return addrs, nil
}

// PrimaryAddress returns the device's address on its bridge or ether2, the
// interfaces a managed device is expected to be reachable on. Falls back to
// the first address when neither is present.
func (d *Device) PrimaryAddress() (string, error) {
	addrs, err := d.Addresses()
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("device has no configured addresses")
	}
	for _, a := range addrs {
		if strings.HasPrefix(a.Interface, "bridge") || a.Interface == "ether2" {
			return stripPrefixLen(a.Address), nil
		}
	}
	return stripPrefixLen(addrs[0].Address), nil
}

func stripPrefixLen(cidr string) string {
	if i := strings.Index(cidr, "/"); i >= 0 {
		return cidr[:i]
	}
	return cidr
}

// FreeSpace returns the device's free storage in bytes.
func (d *Device) FreeSpace() (int64, error) {
	reply, err := d.sess.Run("/system/resource/print")
	if err != nil {
		return 0, err
	}
	if len(reply.Re) == 0 {
		return 0, fmt.Errorf("empty resource reply")
	}
	raw := reply.Re[0].Map["free-hdd-space"]
	free, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable free-hdd-space %q: %w", raw, err)
	}
	return free, nil
}

// ListFiles returns the names of files whose name starts with prefix.
func (d *Device) ListFiles(prefix string) ([]string, error) {
	reply, err := d.sess.Run("/file/print")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, re := range reply.Re {
		name := re.Map["name"]
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// UploadFile creates a file on the device and writes its contents.
func (d *Device) UploadFile(name, contents string) error {
	if _, err := d.sess.Run("/file/add", "=name="+name); err != nil {
		return err
	}
	_, err := d.sess.Run("/file/set", "=numbers="+name, "=contents="+contents)
	return err
}

// FileContents reads a file back from the device.
func (d *Device) FileContents(name string) (string, error) {
	reply, err := d.sess.Run("/file/print", "?name="+name)
	if err != nil {
		return "", err
	}
	if len(reply.Re) == 0 {
		return "", fmt.Errorf("file %q not found on device", name)
	}
	return reply.Re[0].Map["contents"], nil
}

// RemoveFile deletes a file from the device.
func (d *Device) RemoveFile(name string) error {
	_, err := d.sess.Run("/file/remove", "=numbers="+name)
	return err
}

// Import executes a script file on the device. A trap from the device
// surfaces as the returned error.
func (d *Device) Import(name string) error {
	_, err := d.sess.Run("/import", "=file-name="+name)
	return err
}
