package wire

import (
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("picowire.wire")
