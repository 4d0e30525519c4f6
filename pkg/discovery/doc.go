// Package discovery finds SCPI instruments on the local network via mDNS.
//
// LXI instruments announce themselves with DNS-SD service types such as
// _lxi._tcp, _scpi-raw._tcp and _vxi-11._tcp. The browser aggregates
// announcements from multiple interfaces into one entry per instrument and
// converts each into a resource string suitable for driver.Initialize.
package discovery
