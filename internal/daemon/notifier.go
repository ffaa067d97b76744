package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/retry"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// BuildEvent is the JSON payload published after every completed build.
type BuildEvent struct {
	BuildID        string    `json:"build_id"`
	Outcome        string    `json:"outcome"`
	Documents      int       `json:"documents"`
	PagesWritten   int       `json:"pages_written"`
	PagesSkipped   int       `json:"pages_skipped"`
	IndexesWritten int       `json:"indexes_written"`
	DurationMS     int64     `json:"duration_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

func newBuildEvent(report *site.Report) BuildEvent {
	return BuildEvent{
		BuildID:        report.BuildID,
		Outcome:        report.Outcome,
		Documents:      report.Documents,
		PagesWritten:   report.PagesWritten,
		PagesSkipped:   report.PagesSkipped,
		IndexesWritten: report.IndexesWritten,
		DurationMS:     report.End.Sub(report.Start).Milliseconds(),
		Timestamp:      time.Now(),
	}
}

// Notifier publishes build events to a NATS subject.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

// NewNotifier connects to the NATS server at url, retrying briefly so a
// broker that starts alongside the daemon does not fail the whole run.
func NewNotifier(url, subject string) (*Notifier, error) {
	conn, err := connectWithRetry(url, retry.DefaultPolicy())
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("Connected to NATS", slog.String("url", url), slog.String("subject", subject))
	return &Notifier{conn: conn, subject: subject}, nil
}

func connectWithRetry(url string, policy retry.Policy) (*nats.Conn, error) {
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := policy.Delay(attempt)
			slog.Warn("Retrying NATS connection",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", delay),
				logfields.Error(lastErr))
			time.Sleep(delay)
		}
		conn, err := nats.Connect(url, nats.Name("mdsite"))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// Publish sends one event for the finished build.
func (n *Notifier) Publish(report *site.Report) error {
	payload, err := json.Marshal(newBuildEvent(report))
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := n.conn.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}

	slog.Debug("Published build event",
		logfields.BuildID(report.BuildID),
		slog.String("subject", n.subject))
	return nil
}

// Close closes the connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
