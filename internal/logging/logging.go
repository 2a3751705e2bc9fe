// Package logging builds the zap logger shared by the service.
package logging

import (
	"go.uber.org/zap"
)

// New returns a development logger for the "dev" environment and a
// production JSON logger otherwise.
func New(environment string) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if environment == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
