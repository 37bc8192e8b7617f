package utils

import (
	"io"

	"github.com/MrSnakeDoc/followup/internal/logger"
)

// CloseLogged closes c and logs a failure at Warn under what.
// Use in shutdown paths where the error cannot change the outcome.
func CloseLogged(c io.Closer, what string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, logger.Error(err))
		return
	}
	log.Debug(what + " closed")
}
