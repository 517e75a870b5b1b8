package bot

import (
	"errors"
	"fmt"
)

var (
	ErrUntrustedServiceURL = errors.New("untrusted service url")
	ErrInvalidReference    = errors.New("conversation reference is incomplete")
)

// SendError is a non-success reply from the connector service
type SendError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("connector %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}
