package routeros

import (
	"fmt"
	"time"

	ros "github.com/go-routeros/routeros/v3"

	"github.com/traidnet/wificore/internal/common/errorx"
)

// Session is the slice of the RouterOS API client the engine uses. The
// concrete client satisfies it; tests substitute fakes.
type Session interface {
	Run(words ...string) (*ros.Reply, error)
	Close() error
}

// Dialer opens a session to a device. Injected so deployment logic can be
// exercised without a device on the wire.
type Dialer func(address, username, password string, timeout time.Duration) (Session, error)

// Dial connects to the device's binary API port. Connection failures map to
// the unreachable error kind so retry policy can classify them.
func Dial(address, username, password string, timeout time.Duration) (Session, error) {
	client, err := ros.DialTimeout(address, username, password, timeout)
	if err != nil {
		return nil, errorx.Wrap(errorx.KindDeviceUnreachable,
			fmt.Sprintf("cannot reach device at %s", address), err)
	}
	return client, nil
}
