package logging

import (
	"fmt"
	"io"

	"com.aviebrantz.pricetracker/pkg/config"
	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Setup installs the process wide apex/log handler and level.
func Setup(cfg config.LogConfig, w io.Writer) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	switch cfg.Format {
	case "text":
		log.SetHandler(text.New(w))
	case "json":
		log.SetHandler(json.New(w))
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	log.SetLevel(level)
	return nil
}
