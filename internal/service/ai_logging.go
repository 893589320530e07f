package service

import (
	"strings"
	"unicode/utf8"

	"github.com/athletetrack/internal/logger"
)

const maxAILogSnippetRunes = 1024

// logAIExchange 输出 AI 请求与响应的关键信息，过长内容截断。
func logAIExchange(log *logger.Logger, kind, phase, content string) {
	if log == nil {
		return
	}

	trimmed := strings.TrimSpace(content)
	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxAILogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxAILogSnippetRunes]) + "…(truncated)"
	}
	if snippet == "" {
		snippet = "<empty>"
	}

	log.Debug("ai exchange", "kind", kind, "phase", phase, "runes", runeCount, "content", snippet)
}
