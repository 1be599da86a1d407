package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"

	retry "github.com/StirlingMarketingGroup/go-retry"

	"github.com/yllada/bitmask-client/common"
)

var log = common.NamedLogger("imap")

// DialFunc opens a connection to the provider's IMAP server.
type DialFunc func(ctx context.Context) (net.Conn, error)

// UpstreamDialer returns a DialFunc for host:port, retried on failure.
func UpstreamDialer(host string, port int, useTLS bool) DialFunc {
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	return func(ctx context.Context) (net.Conn, error) {
		var conn net.Conn
		err := retry.Retry(func() error {
			d := &net.Dialer{Timeout: common.DialTimeout}
			var err error
			if useTLS {
				td := &tls.Dialer{NetDialer: d, Config: &tls.Config{ServerName: host}}
				conn, err = td.DialContext(ctx, "tcp", addr)
			} else {
				conn, err = d.DialContext(ctx, "tcp", addr)
			}
			return err
		}, common.DialRetries, func(err error) error {
			log.Warn("Dial %s failed, retrying: %v", addr, err)
			return ctx.Err()
		}, func() error {
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrConnectionFailed, addr, err)
		}
		return conn, nil
	}
}
