package scpi

import (
	"strings"

	"github.com/scpi-protocol/scpi-go/pkg/version"
)

// Identity is the parsed *IDN? response.
type Identity struct {
	Manufacturer string
	Model        string
	Serial       string
	Firmware     string
}

// String returns the identity in *IDN? field order.
func (i Identity) String() string {
	return strings.Join([]string{i.Manufacturer, i.Model, i.Serial, i.Firmware}, ",")
}

// parseIdentity splits a comma-separated *IDN? response. Instruments that
// return fewer than four fields leave the remainder empty.
func parseIdentity(response string) Identity {
	fields := strings.SplitN(response, ",", 4)
	var ident Identity
	if len(fields) > 0 {
		ident.Manufacturer = strings.TrimSpace(fields[0])
	}
	if len(fields) > 1 {
		ident.Model = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		ident.Serial = strings.TrimSpace(fields[2])
	}
	if len(fields) > 3 {
		ident.Firmware = strings.TrimSpace(fields[3])
	}
	return ident
}

// Identity queries and parses *IDN?.
func (c *Channel) Identity() (Identity, error) {
	response, err := c.Query("*IDN?")
	if err != nil {
		return Identity{}, err
	}
	return parseIdentity(response), nil
}

// Reset issues *RST, returning the instrument to its power-on defaults.
func (c *Channel) Reset() error {
	return c.Send("*RST")
}

// ClearStatus issues *CLS, clearing status registers and the error queue.
func (c *Channel) ClearStatus() error {
	return c.Send("*CLS")
}

// OperationComplete blocks until pending overlapped commands finish (*OPC?).
func (c *Channel) OperationComplete() error {
	_, err := c.Query("*OPC?")
	return err
}

// Version queries the SCPI standard revision the instrument conforms to
// (SYSTem:VERSion?).
func (c *Channel) Version() (version.SCPIVersion, error) {
	response, err := c.Query("SYSTem:VERSion?")
	if err != nil {
		return version.SCPIVersion{}, err
	}
	return version.Parse(response)
}
