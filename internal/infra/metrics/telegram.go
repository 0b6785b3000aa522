package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(telegramCommandsReceivedTotal)
}

var telegramCommandsReceivedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "telegram_commands_received_total",
		Help: "Counts incoming messages and commands from users.",
	},
	[]string{"command"},
)

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

// norm keeps the label space bounded: known slash commands pass through,
// everything else collapses to "message".
func norm(command string) string {
	command = strings.ToLower(strings.TrimSpace(command))
	switch command {
	case "/start", "/bar", "/count", "/cu", "/export":
		return command
	default:
		return "message"
	}
}
