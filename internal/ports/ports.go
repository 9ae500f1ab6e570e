// Package ports discovers serial ports usable for flashing and
// monitoring, falling back to simulated ports when no hardware is
// attached.
package ports

import (
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"pkt.systems/canflash/schema"
)

// Discover lists attached ttyACM/ttyUSB ports in sorted order, ACM
// first. When none are present the default simulated ports are returned.
func Discover() []schema.PortID {
	found := append(globPorts("/dev/ttyACM*"), globPorts("/dev/ttyUSB*")...)
	if len(found) == 0 {
		return schema.DefaultSimulatedPorts()
	}
	return found
}

func globPorts(pattern string) []schema.PortID {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	ports := make([]schema.PortID, 0, len(matches))
	for _, path := range matches {
		port := schema.PortID(filepath.Base(path))
		if schema.ClassifyPort(port) != schema.PortRealSerial {
			continue
		}
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// Available reports whether a real port exists and is readable and
// writable by the current user. Simulated ports are always available.
func Available(port schema.PortID) bool {
	if schema.ClassifyPort(port) == schema.PortSimulated {
		return true
	}
	return unix.Access(schema.DevicePath(port), unix.R_OK|unix.W_OK) == nil
}
