package logger

import (
	"fmt"

	"github.com/hokaccha/go-prettyjson"
	"github.com/rs/zerolog/log"
)

// DebugJSON prints a prettified JSON of the data to the log output
func DebugJSON(obj interface{}) {
	if !log.Debug().Enabled() {
		return
	}

	s, _ := prettyjson.Marshal(obj)
	fmt.Fprintln(LogOutputWriter, string(s))
}
