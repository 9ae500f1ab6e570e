package schema

import (
	"fmt"
	"regexp"
)

var realPortPattern = regexp.MustCompile(`^tty(ACM|USB)\d+$`)

// ClassifyPort selects the monitor variant for a port. Ports named
// ttyACM<n> or ttyUSB<n> are real hardware; everything else follows the
// Port1..N convention and is served by the simulated data generator.
func ClassifyPort(port PortID) PortClass {
	if realPortPattern.MatchString(string(port)) {
		return PortRealSerial
	}
	return PortSimulated
}

// DevicePath returns the /dev path for a port.
func DevicePath(port PortID) string {
	return "/dev/" + string(port)
}

// DefaultSimulatedPorts returns the fallback ports offered when no
// hardware is attached.
func DefaultSimulatedPorts() []PortID {
	ports := make([]PortID, 0, 4)
	for i := 1; i <= 4; i++ {
		ports = append(ports, PortID(fmt.Sprintf("Port%d", i)))
	}
	return ports
}
