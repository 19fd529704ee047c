package transport

import (
	"fmt"

	"github.com/google/gousb"
)

// ResetUSB issues a USB port reset to the device with the given vendor and
// product ID. This re-enumerates the CDC serial endpoint, which clears wedge
// states that survive closing and reopening the serial port. The serial port
// must not be open while the reset runs.
func ResetUSB(vid, pid uint16) error {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == vid && uint16(desc.Product) == pid
	})
	if err != nil {
		for _, dev := range devs {
			dev.Close()
		}
		return fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if len(devs) == 0 {
		return fmt.Errorf("no USB device %04x:%04x found", vid, pid)
	}

	// Reset the first match, close the rest
	dev := devs[0]
	defer dev.Close()
	for _, extra := range devs[1:] {
		extra.Close()
	}

	if err := dev.Reset(); err != nil {
		return fmt.Errorf("failed to reset USB device %04x:%04x: %w", vid, pid, err)
	}
	return nil
}
