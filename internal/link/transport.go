package link

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jacobsa/go-serial/serial"
)

// OpenSerial opens the UART side of the robot/backend link at 8N1. The
// inter-character timeout keeps reads from blocking longer than 100ms so
// the downlink poll loop stays responsive.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	p, err := serial.Open(serial.OpenOptions{
		PortName:              port,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", port, err)
	}
	return p, nil
}

// DialTCP connects to a planner backend listening on addr. Used by the
// bench setup where the robot and planner share a network instead of a
// serial cable.
func DialTCP(addr string, timeout time.Duration) (io.ReadWriteCloser, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dialing planner %s: %w", addr, err)
	}
	return conn, nil
}
