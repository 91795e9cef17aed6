package driver

import (
	"fmt"
	"net"

	"pixelwatch/internal/services"
)

const loopbackHost = "127.0.0.1"

// AllocatePort asks the kernel for a free loopback port and releases it
// immediately so the driver process can bind it.
func AllocatePort() (int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(loopbackHost, "0"))
	if err != nil {
		return 0, services.Wrap(services.ErrProcess, "driver", "allocate port", "", err)
	}
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		return 0, services.Wrap(services.ErrProcess, "driver", "allocate port",
			fmt.Sprintf("unexpected listener address %T", ln.Addr()), nil)
	}
	if err := ln.Close(); err != nil {
		return 0, services.Wrap(services.ErrProcess, "driver", "release port", "", err)
	}
	return addr.Port, nil
}
