// Package comm provides EBI protocol support.
package comm

// EBI is the serial protocol spoken by Embit radio modules. It is
// half-duplex: the host sends a command and the module answers with a
// response carrying the same id with the high bit set. Asynchronous
// notifications (e.g. received wireless M-Bus telegrams) use reserved
// response ids and arrive whenever the module has something to report.
//
// Each frame is prefixed by a 2-byte (big-endian) length which counts the
// whole frame, and terminated by a single checksum byte which is the sum
// of all preceding bytes modulo 256.
//
// Producer: Embit module
// Consumer: host
