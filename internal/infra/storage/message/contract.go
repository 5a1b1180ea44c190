package message

import "github.com/m04kA/SMC-LessonService/pkg/dbmetrics"

// DBExecutor интерфейс для выполнения запросов (*sql.DB, транзакция или обёртка с метриками)
type DBExecutor = dbmetrics.DBExecutor
