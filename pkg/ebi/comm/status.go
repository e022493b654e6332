package comm

import "fmt"

// Status is the execution status byte leading the payload of responses
// to commands sent with parameters.
type Status byte

// Execution status values.
const (
	StatusSuccess               Status = 0x00
	StatusGenericError          Status = 0x01
	StatusParametersNotAccepted Status = 0x02
	StatusOperationTimeout      Status = 0x03
	StatusNoMemory              Status = 0x04
	StatusUnsupported           Status = 0x05
	StatusBusy                  Status = 0x06
	StatusDutyCycle             Status = 0x07
)

var statusNames = map[Status]string{
	StatusSuccess:               "Success",
	StatusGenericError:          "Generic error",
	StatusParametersNotAccepted: "Parameters not accepted",
	StatusOperationTimeout:      "Operation timeout",
	StatusNoMemory:              "No memory",
	StatusUnsupported:           "Unsupported",
	StatusBusy:                  "Busy",
	StatusDutyCycle:             "Duty Cycle",
}

// Known tells if the status code is defined.
func (s Status) Known() bool {
	_, ok := statusNames[s]
	return ok
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", byte(s))
}

// StatusError wraps a non-success execution status.
type StatusError struct {
	Status Status
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("command error: %s", e.Status)
}
