package main

import (
	"asha-assistant/internal/common/logger"
	"asha-assistant/internal/httpapi"

	as "asha-assistant/internal/workers/ai-conversation/analyze-sentiment"
	ar "asha-assistant/internal/workers/ai-conversation/augment-retrieval"
	cc "asha-assistant/internal/workers/ai-conversation/complete-chat"
	rp "asha-assistant/internal/workers/ai-conversation/response-pipeline"
)

// Logger adapters for components that declare their own Logger interfaces.
type retrievalLoggerAdapter struct {
	logger.Logger
}

func (a *retrievalLoggerAdapter) With(fields map[string]interface{}) ar.Logger {
	return &retrievalLoggerAdapter{a.Logger.With(fields)}
}

type completeChatLoggerAdapter struct {
	logger.Logger
}

func (a *completeChatLoggerAdapter) With(fields map[string]interface{}) cc.Logger {
	return &completeChatLoggerAdapter{a.Logger.With(fields)}
}

type sentimentLoggerAdapter struct {
	logger.Logger
}

func (a *sentimentLoggerAdapter) With(fields map[string]interface{}) as.Logger {
	return &sentimentLoggerAdapter{a.Logger.With(fields)}
}

type pipelineLoggerAdapter struct {
	logger.Logger
}

func (a *pipelineLoggerAdapter) With(fields map[string]interface{}) rp.Logger {
	return &pipelineLoggerAdapter{a.Logger.With(fields)}
}

type httpLoggerAdapter struct {
	logger.Logger
}

func (a *httpLoggerAdapter) With(fields map[string]interface{}) httpapi.Logger {
	return &httpLoggerAdapter{a.Logger.With(fields)}
}
