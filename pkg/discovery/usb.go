package discovery

import (
	"fmt"

	"github.com/google/gousb"
)

// USBTMC interface class and subclass, per the USB test and measurement
// class specification.
const (
	usbClassApplication = gousb.ClassApplication
	usbSubclassTMC      = gousb.Class(0x03)
)

// USBInstrument is one USBTMC-capable device found on the bus.
type USBInstrument struct {
	// VendorID and ProductID identify the device model.
	VendorID  uint16
	ProductID uint16

	// Serial is the device serial number string, when readable.
	Serial string

	// Manufacturer and Product are the USB descriptor strings, when
	// readable.
	Manufacturer string
	Product      string
}

// ResourceString builds the resource string a driver opens this instrument
// with.
func (u *USBInstrument) ResourceString() string {
	if u.Serial != "" {
		return fmt.Sprintf("USB0::0x%04X::0x%04X::%s::INSTR", u.VendorID, u.ProductID, u.Serial)
	}
	return fmt.Sprintf("USB0::0x%04X::0x%04X::INSTR", u.VendorID, u.ProductID)
}

// String formats the instrument for listings.
func (u *USBInstrument) String() string {
	label := u.Product
	if u.Manufacturer != "" {
		label = u.Manufacturer + " " + u.Product
	}
	if label == "" {
		label = "USBTMC device"
	}
	return fmt.Sprintf("%s at %s", label, u.ResourceString())
}

// FindUSB enumerates USBTMC-capable devices on the local USB buses. Devices
// whose descriptor strings cannot be read are still listed, with the
// numeric identifiers alone.
func FindUSB() ([]*USBInstrument, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return hasTMCInterface(desc)
	})
	// Some matching devices may be unopenable without permissions; report
	// the ones that did open.
	if err != nil && err != gousb.ErrorAccess && len(devs) == 0 {
		return nil, fmt.Errorf("enumerate usb devices: %w", err)
	}

	instruments := make([]*USBInstrument, 0, len(devs))
	for _, dev := range devs {
		serial, _ := dev.SerialNumber()
		manufacturer, _ := dev.Manufacturer()
		product, _ := dev.Product()

		instruments = append(instruments, &USBInstrument{
			VendorID:     uint16(dev.Desc.Vendor),
			ProductID:    uint16(dev.Desc.Product),
			Serial:       serial,
			Manufacturer: manufacturer,
			Product:      product,
		})
		dev.Close()
	}
	return instruments, nil
}

// hasTMCInterface reports whether any configuration exposes a USBTMC
// interface.
func hasTMCInterface(desc *gousb.DeviceDesc) bool {
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if alt.Class == usbClassApplication && alt.SubClass == usbSubclassTMC {
					return true
				}
			}
		}
	}
	return false
}
