package main

import (
	"log"
	"strings"

	"jobboard/pkg/logging"
)

// serverErrorWriter 把 net/http 内部错误转成结构化日志
// 客户端提前断开产生的 "broken pipe" 等噪音降为 debug
type serverErrorWriter struct {
	log *logging.Logger
}

func (w *serverErrorWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	if strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer") {
		w.log.Debug(msg)
	} else {
		w.log.Warn(msg)
	}
	return len(p), nil
}

// newServerErrorLog 用于 http.Server.ErrorLog
func newServerErrorLog(l *logging.Logger) *log.Logger {
	return log.New(&serverErrorWriter{log: l}, "", 0)
}
