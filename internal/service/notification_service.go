package service

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/change-control/internal/config"
	"github.com/spec-kit/change-control/internal/domain"
	"github.com/spec-kit/change-control/internal/events"
	"github.com/spec-kit/change-control/internal/mail"
	"github.com/spec-kit/change-control/internal/repository"
)

const notificationTimeLayout = "2006-01-02 15:04 MST"

// NotificationService emails approver groups about submitted tickets.
type NotificationService struct {
	dispatcher events.Dispatcher
	groups     repository.GroupRepository
	mailer     mail.Mailer
	logger     *zap.Logger
	cfg        config.NotificationConfig
	storage    config.StorageConfig
}

// NotificationDependencies bundles collaborators for the notification service.
// A nil Mailer disables delivery; events are still logged.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	GroupRepo  repository.GroupRepository
	Mailer     mail.Mailer
	Logger     *zap.Logger
	Config     config.NotificationConfig
	Storage    config.StorageConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		groups:     deps.GroupRepo,
		mailer:     deps.Mailer,
		logger:     logger,
		cfg:        deps.Config,
		storage:    deps.Storage,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventTicketRemoved, n.logEvent)
	n.dispatcher.Subscribe(events.EventDeploymentRecorded, n.logEvent)
}

func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketSubmitted", zap.Int("ticket_id", event.TicketID), zap.Any("payload", event.Payload))

	payload, ok := event.Payload.(events.TicketSubmittedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if n.mailer == nil {
		n.logger.Debug("email delivery disabled", zap.Int("ticket_id", event.TicketID))
		return nil
	}
	if len(payload.GroupIDs) == 0 {
		return nil
	}

	groups, err := n.groups.GetByIDs(ctx, payload.GroupIDs)
	if err != nil {
		return fmt.Errorf("load approver groups: %w", err)
	}
	recipients := approverEmails(groups)
	if len(recipients) == 0 {
		n.logger.Warn("no approver addresses for ticket", zap.Int("ticket_id", event.TicketID))
		return nil
	}

	msg := n.buildSubmittedMessage(event, payload)
	msg.To = recipients
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send approver email: %w", err)
	}
	n.logger.Info("approver email sent",
		zap.Int("ticket_id", event.TicketID),
		zap.Int("recipients", len(recipients)),
		zap.Int("email_template_id", payload.EmailTemplateID))
	return nil
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Int("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.Username),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) buildSubmittedMessage(event events.Event, payload events.TicketSubmittedPayload) mail.Message {
	verb := "updated"
	if payload.IsNew {
		verb = "submitted"
	}
	subject := fmt.Sprintf("Change %s: #%d %s", verb, event.TicketID, payload.ChangeTitle)
	if payload.IsHighRisk {
		subject = "[HIGH RISK] " + subject
	}

	link := n.TicketLink(event.TicketID)
	window := fmt.Sprintf("%s - %s",
		payload.StartDateTime.Format(notificationTimeLayout),
		payload.EndDateTime.Format(notificationTimeLayout))

	var plain strings.Builder
	fmt.Fprintf(&plain, "Change #%d was %s by %s and needs your approval.\n\n", event.TicketID, verb, event.Actor.Username)
	fmt.Fprintf(&plain, "Title: %s\n", payload.ChangeTitle)
	if payload.ChangeTypeName != "" {
		fmt.Fprintf(&plain, "Type: %s\n", payload.ChangeTypeName)
	}
	fmt.Fprintf(&plain, "Window: %s\n", window)
	fmt.Fprintf(&plain, "Ticket: %s\n", link)
	if n.storage.CalendarLink != "" {
		fmt.Fprintf(&plain, "Change calendar: %s\n", n.storage.CalendarLink)
	}
	if payload.DownloadedPath != nil {
		fmt.Fprintf(&plain, "Attachments: %s\n", *payload.DownloadedPath)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "<p>Change <a href=\"%s\">#%d</a> was %s by %s and needs your approval.</p>",
		html.EscapeString(link), event.TicketID, verb, html.EscapeString(event.Actor.Username))
	fmt.Fprintf(&body, "<p><b>%s</b><br>%s</p>", html.EscapeString(payload.ChangeTitle), html.EscapeString(window))
	if n.storage.CalendarLink != "" {
		fmt.Fprintf(&body, "<p><a href=\"%s\">Change calendar</a></p>", html.EscapeString(n.storage.CalendarLink))
	}

	headers := map[string]string{}
	if payload.EmailTemplateID > 0 {
		headers[mail.TemplateHeader] = strconv.Itoa(payload.EmailTemplateID)
	}
	return mail.Message{
		Subject:   subject,
		PlainBody: plain.String(),
		HTMLBody:  body.String(),
		Headers:   headers,
	}
}

// TicketLink returns the address of a ticket in the web client.
func (n *NotificationService) TicketLink(ticketID int) string {
	return fmt.Sprintf("%s/tickets/%d", strings.TrimRight(n.cfg.TicketBaseURL, "/"), ticketID)
}

// approverEmails returns distinct addresses of active groups.
func approverEmails(groups []domain.Group) []string {
	seen := map[string]struct{}{}
	emails := make([]string, 0, len(groups))
	for _, g := range groups {
		addr := strings.TrimSpace(g.Email)
		if !g.IsActive || addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		emails = append(emails, addr)
	}
	return emails
}
