package pipeline

import "errors"

// ErrInvalidMessage is returned for input that is not valid UTF-8 text.
// It is the only error a well-initialized pipeline returns per message.
var ErrInvalidMessage = errors.New("message is not valid UTF-8 text")
