package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/require"

	"eventlottery/internal/domain"
	"eventlottery/internal/repository/memory"
)

type sentMail struct {
	to      string
	subject string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor string
	started chan struct{}
	release chan struct{}
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if m.started != nil {
		m.started <- struct{}{}
		<-m.release
	}
	if to == m.failFor {
		return errors.New("mailbox unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

func (m *fakeMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, s := range m.sent {
		out = append(out, s.to)
	}
	return out
}

func newTestNotifier(t *testing.T, mailer domain.Mailer, cfg NotifierConfig) *Notifier {
	t.Helper()
	renderer, err := NewTemplateRenderer()
	require.NoError(t, err)

	store := memory.NewStore()
	store.PutProfile(domain.DisplayAttributes{EntrantID: "u1", Name: "Ada", Email: "ada@example.com", NotificationsEnabled: true})
	store.PutProfile(domain.DisplayAttributes{EntrantID: "u2", Name: "Bob", Email: "bob@example.com", NotificationsEnabled: false})
	store.PutProfile(domain.DisplayAttributes{EntrantID: "u3", Name: "Cy", Email: "cy@example.com", NotificationsEnabled: true})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotifier(mailer, renderer, store.Profiles(), cfg, logger)
}

func TestNotifier_DeliversToOptedInRecipients(t *testing.T) {
	mailer := &fakeMailer{}
	n := newTestNotifier(t, mailer, NotifierConfig{Workers: 2})

	err := n.Notify(context.Background(), "ev-1", []string{"u1", "u2", "ghost", "u3"},
		domain.TemplateLotterySelected, map[string]string{domain.VarEventName: "Spring Gala"})
	require.NoError(t, err)
	require.NoError(t, n.Close(context.Background()))

	require.ElementsMatch(t, []string{"ada@example.com", "cy@example.com"}, mailer.recipients())
	require.Equal(t, "You have been selected for Spring Gala", mailer.sent[0].subject)
}

func TestNotifier_FailureDoesNotStopOtherRecipients(t *testing.T) {
	mailer := &fakeMailer{failFor: "ada@example.com"}
	n := newTestNotifier(t, mailer, NotifierConfig{})

	require.NoError(t, n.Notify(context.Background(), "ev-1", []string{"u1", "u3"}, domain.TemplateInvitationCancelled, nil))
	require.NoError(t, n.Notify(context.Background(), "ev-1", []string{"u1"}, "no_such_template", nil))
	require.NoError(t, n.Close(context.Background()))

	require.Equal(t, []string{"cy@example.com"}, mailer.recipients())
}

func TestNotifier_Backpressure(t *testing.T) {
	mailer := &fakeMailer{started: make(chan struct{}), release: make(chan struct{})}
	n := newTestNotifier(t, mailer, NotifierConfig{Workers: 1, QueueSize: 1})
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, "ev-1", []string{"u1"}, domain.TemplateLotterySelected, nil))
	<-mailer.started // dispatcher is now blocked inside Send

	require.NoError(t, n.Notify(ctx, "ev-1", []string{"u3"}, domain.TemplateLotterySelected, nil))
	err := n.Notify(ctx, "ev-1", []string{"u3"}, domain.TemplateLotterySelected, nil)
	require.ErrorIs(t, err, ErrQueueFull)

	close(mailer.release)
	go func() {
		for range mailer.started {
		}
	}()
	require.NoError(t, n.Close(ctx))
	require.Len(t, mailer.recipients(), 2)
}

func TestNotifier_RejectsAfterClose(t *testing.T) {
	n := newTestNotifier(t, &fakeMailer{}, NotifierConfig{})
	require.NoError(t, n.Close(context.Background()))
	require.NoError(t, n.Close(context.Background()))

	err := n.Notify(context.Background(), "ev-1", []string{"u1"}, domain.TemplateLotterySelected, nil)
	require.ErrorIs(t, err, ErrNotifierClosed)
	require.NoError(t, n.Notify(context.Background(), "ev-1", nil, domain.TemplateLotterySelected, nil))
}

func TestNotifier_CloseHonoursContext(t *testing.T) {
	mailer := &fakeMailer{started: make(chan struct{}), release: make(chan struct{})}
	n := newTestNotifier(t, mailer, NotifierConfig{Workers: 1})

	require.NoError(t, n.Notify(context.Background(), "ev-1", []string{"u1"}, domain.TemplateLotterySelected, nil))
	<-mailer.started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, n.Close(ctx), context.DeadlineExceeded)
	close(mailer.release)
}

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	api := &fakeSES{}
	m := &sesMailer{client: api, source: formatSource("Lottery", "noreply@example.com"), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	require.NoError(t, m.Send(context.Background(), "ada@example.com", "Hello", "<p>hi</p>", ""))
	require.Equal(t, "Lottery <noreply@example.com>", aws.ToString(api.input.Source))
	require.Equal(t, []string{"ada@example.com"}, api.input.Destination.ToAddresses)
	require.Equal(t, "<p>hi</p>", aws.ToString(api.input.Message.Body.Html.Data))
	require.Nil(t, api.input.Message.Body.Text)

	api.err = errors.New("throttled")
	require.ErrorContains(t, m.Send(context.Background(), "ada@example.com", "Hello", "", "hi"), "throttled")
}

func TestNewMailer(t *testing.T) {
	_, err := NewMailer(MailerConfig{Provider: "ses"}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	m, err := NewMailer(MailerConfig{Provider: "carrier-pigeon"}, nil)
	require.NoError(t, err)
	require.IsType(t, &noopMailer{}, m)
	require.NoError(t, m.Send(context.Background(), "a@example.com", "s", "", ""))
}
