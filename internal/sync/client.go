package sync

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
)

// Subscribe connects to a TCP sync server and calls fn for every line it
// sends, welcome included. It returns when ctx is done (nil) or the
// connection drops (an error).
func Subscribe(ctx context.Context, addr string, fn func(line []byte)) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fn(sc.Bytes())
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return fmt.Errorf("connection to %s closed", addr)
}
