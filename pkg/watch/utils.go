package watch

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/gobwas/ws/wsutil"
)

// IsErrClosed checks for errors caused by a closed connection.
func IsErrClosed(err error) bool {
	if err == nil {
		return false
	}
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection")
}
