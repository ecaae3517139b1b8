package indicator

import "errors"

// ErrResourceCreation indicates the host could not create, show, hide or
// dispose the indicator item.
var ErrResourceCreation = errors.New("indicator: host resource failure")
