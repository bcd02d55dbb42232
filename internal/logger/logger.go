package logger

import (
	"go-erp/internal/config"
	"go-erp/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. Console output always; every
// entry is additionally teed to the Mongo "logs" collection by an async
// worker so that log queries survive restarts.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)

	// Replace the logger's core with the tee core (console + DB)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}
