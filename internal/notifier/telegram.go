package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

// telegramMessageLimit is the Bot API limit on message text length
const telegramMessageLimit = 4096

var apiBaseURL = "https://api.telegram.org/bot"

// TelegramNotifier sends one message per batch to a Telegram chat
type TelegramNotifier struct {
	botToken   string
	chatID     string
	agendaURL  string
	httpClient *http.Client
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(botToken, chatID, agendaURL string) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &TelegramNotifier{
		botToken:  botToken,
		chatID:    chatID,
		agendaURL: strings.TrimRight(agendaURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Notify sends the batch, split into several messages if it is too long
func (n *TelegramNotifier) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	if len(events) == 0 {
		return nil
	}

	for _, text := range formatTelegram(activity, events, n.agendaURL) {
		if err := n.sendMessage(ctx, text); err != nil {
			return fmt.Errorf("telegram notification for %s: %w", activity, err)
		}
	}
	return nil
}

// formatTelegram renders events as HTML messages no longer than the API limit
func formatTelegram(activity string, events []agenda.Notification, agendaURL string) []string {
	header := fmt.Sprintf("🏔️ <b>%d new event(s): %s</b>\n\n", len(events), html.EscapeString(activity))
	footer := ""
	if agendaURL != "" {
		footer = fmt.Sprintf("\n🔗 %s/%s.html", html.EscapeString(agendaURL), html.EscapeString(activity))
	}

	var messages []string
	var msg strings.Builder
	msg.WriteString(header)

	for _, evt := range events {
		line := fmt.Sprintf("📅 <i>%s</i>\n📍 %s\n\n", html.EscapeString(agenda.Label(evt.Date)), html.EscapeString(evt.Title))
		if room := telegramMessageLimit - len(header) - len(footer); len(line) > room {
			line = truncateEvent(evt, room)
		}
		if msg.Len() > len(header) && msg.Len()+len(line)+len(footer) > telegramMessageLimit {
			messages = append(messages, strings.TrimRight(msg.String(), "\n"))
			msg.Reset()
			msg.WriteString(header)
		}
		msg.WriteString(line)
	}
	msg.WriteString(footer)
	messages = append(messages, strings.TrimRight(msg.String(), "\n"))

	return messages
}

// truncateEvent renders evt in at most limit bytes, shortening the date
// label and the title. Text is cut before escaping so no entity is split.
func truncateEvent(evt agenda.Notification, limit int) string {
	date := html.EscapeString(truncateRunes(agenda.Label(evt.Date), 100))
	title := []rune(evt.Title)
	for {
		line := fmt.Sprintf("📅 <i>%s</i>\n📍 %s...\n\n", date, html.EscapeString(string(title)))
		if len(line) <= limit || len(title) == 0 {
			return line
		}
		// Shrink proportionally, at least one rune per step
		cut := len(title) * limit / len(line)
		if cut >= len(title) {
			cut = len(title) - 1
		}
		title = title[:cut]
	}
}

// sendMessage sends a text message to the configured chat
func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s%s/sendMessage", apiBaseURL, n.botToken)

	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}
