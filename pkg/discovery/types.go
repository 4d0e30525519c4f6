package discovery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates no matching instrument was discovered before
	// the browse ended.
	ErrNotFound = errors.New("instrument not found")
)

// DNS-SD service types LXI instruments announce.
const (
	// ServiceLXI is the primary LXI discovery service.
	ServiceLXI = "_lxi._tcp"

	// ServiceSCPIRaw is the raw socket SCPI service.
	ServiceSCPIRaw = "_scpi-raw._tcp"

	// ServiceSCPITelnet is the telnet SCPI service.
	ServiceSCPITelnet = "_scpi-telnet._tcp"

	// ServiceVXI11 is the VXI-11 RPC service.
	ServiceVXI11 = "_vxi-11._tcp"
)

// Domain is the mDNS domain instruments announce in.
const Domain = "local."

// BrowseTimeout is the default per-browse deadline.
const BrowseTimeout = 10 * time.Second

// Instrument is one discovered instrument announcement.
type Instrument struct {
	// InstanceName is the mDNS instance name, usually the model plus
	// serial number.
	InstanceName string

	// Service is the DNS-SD service type the announcement came from.
	Service string

	// Host is the announced hostname.
	Host string

	// Port is the announced TCP port.
	Port uint16

	// Addresses are the resolved IP addresses, aggregated across
	// interfaces.
	Addresses []string

	// Manufacturer, Model, Serial and Firmware come from the LXI TXT
	// record when the instrument provides one.
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// address picks the announced address, preferring IPv4 spellings and
// falling back to the hostname.
func (i *Instrument) address() string {
	for _, a := range i.Addresses {
		if !strings.Contains(a, ":") {
			return a
		}
	}
	if len(i.Addresses) > 0 {
		return i.Addresses[0]
	}
	return strings.TrimSuffix(i.Host, ".")
}

// ResourceString builds the resource string a driver opens this instrument
// with. LXI and VXI-11 announcements map to the VISA-style INSTR class;
// raw-socket announcements carry their port and map to SOCKET.
func (i *Instrument) ResourceString() string {
	addr := i.address()
	switch i.Service {
	case ServiceSCPIRaw, ServiceSCPITelnet:
		return fmt.Sprintf("TCPIP0::%s::%d::SOCKET", addr, i.Port)
	default:
		return fmt.Sprintf("TCPIP0::%s::INSTR", addr)
	}
}

// String formats the instrument for listings.
func (i *Instrument) String() string {
	label := i.InstanceName
	if i.Manufacturer != "" && i.Model != "" {
		label = fmt.Sprintf("%s %s (%s)", i.Manufacturer, i.Model, i.InstanceName)
	}
	return fmt.Sprintf("%s at %s", label, i.ResourceString())
}

// decodeTXT fills the identity fields from LXI TXT record entries. Keys are
// matched case-insensitively; unknown keys are ignored.
func (i *Instrument) decodeTXT(text []string) {
	for _, entry := range text {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "manufacturer":
			i.Manufacturer = value
		case "model":
			i.Model = value
		case "serialnumber", "serial":
			i.Serial = value
		case "firmwareversion", "firmware":
			i.Firmware = value
		}
	}
}
