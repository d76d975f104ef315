// Package device provides the sinks the dispatcher writes encoded output to:
// named devices reached through a spool directory, a device file or a raw
// TCP socket, and the lockers that serialize access per device name.
package device
