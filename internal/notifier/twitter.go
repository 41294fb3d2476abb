package notifier

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
	"github.com/pfrederiksen/clubot/internal/agenda"
)

const tweetLimit = 280

// statusUpdater is the part of the Twitter client used to post statuses
type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterNotifier posts new events to Twitter
type TwitterNotifier struct {
	statuses  statusUpdater
	agendaURL string
	spacing   time.Duration
}

// NewTwitterNotifier creates a new Twitter notifier using environment variables.
// agendaURL is the agenda base URL linked from each tweet.
// Required environment variables:
// - TWITTER_API_KEY
// - TWITTER_API_SECRET
// - TWITTER_ACCESS_TOKEN
// - TWITTER_ACCESS_SECRET
func NewTwitterNotifier(agendaURL string) (*TwitterNotifier, error) {
	apiKey := os.Getenv("TWITTER_API_KEY")
	apiSecret := os.Getenv("TWITTER_API_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessSecret := os.Getenv("TWITTER_ACCESS_SECRET")

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials in environment variables")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterNotifier{
		statuses:  client.Statuses,
		agendaURL: strings.TrimRight(agendaURL, "/"),
		spacing:   2 * time.Second,
	}, nil
}

// Notify posts one tweet per new event
func (n *TwitterNotifier) Notify(ctx context.Context, activity string, events []agenda.Notification) error {
	for i, evt := range events {
		tweet := formatTweet(activity, evt, n.agendaURL)

		if _, _, err := n.statuses.Update(tweet, nil); err != nil {
			return fmt.Errorf("failed to post tweet for %s on %s: %w", evt.Title, agenda.Label(evt.Date), err)
		}

		// Rate limiting: wait between tweets
		if i < len(events)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.spacing):
			}
		}
	}

	return nil
}

// formatTweet formats a new event as a tweet
func formatTweet(activity string, evt agenda.Notification, agendaURL string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🏔️ Nouvelle sortie %s !\n\n", activity))
	b.WriteString(fmt.Sprintf("📅 %s\n", agenda.Label(evt.Date)))
	b.WriteString(fmt.Sprintf("📍 %s\n", evt.Title))
	if agendaURL != "" {
		b.WriteString(fmt.Sprintf("\n🔗 %s/%s.html\n", agendaURL, activity))
	}
	b.WriteString("\n#ClubAlpin")

	return truncateRunes(b.String(), tweetLimit)
}

// truncateRunes shortens s to at most limit characters, ending with "..."
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
