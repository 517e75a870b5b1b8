package conversations

import "errors"

var (
	ErrUnknownIdentity       = errors.New("no conversations bound to identity")
	ErrDuplicateConversation = errors.New("conversation already bound to identity")
	ErrDuplicateTempKey      = errors.New("temp key already staged")
	ErrUnknownTempKey        = errors.New("nothing staged under temp key")
)
