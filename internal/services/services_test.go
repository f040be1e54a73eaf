package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventify-api/internal/status"
	"eventify-api/models"
)

// memStore is an in-memory stand-in for the PocketBase-backed stores. It
// mirrors the storage-level guarantees the services rely on: the
// (registration_id, slot) unique constraint on ticket inserts and the
// conditional single-winner updates for mark-paid and redeem.
type memStore struct {
	mu      sync.Mutex
	regs    map[string]*models.Registration
	tickets map[string]*models.Ticket
	events  map[string]*models.Event
	users   map[string]testUser
	nextID  int
}

type testUser struct {
	name  string
	email string
}

func newMemStore() *memStore {
	return &memStore{
		regs:    map[string]*models.Registration{},
		tickets: map[string]*models.Ticket{},
		events:  map[string]*models.Event{},
		users:   map[string]testUser{},
	}
}

func (s *memStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%04d", prefix, s.nextID)
}

func (s *memStore) addEvent(event *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = event
}

func (s *memStore) addUser(id, name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = testUser{name: name, email: email}
}

func copyRegistration(reg *models.Registration) *models.Registration {
	c := *reg
	return &c
}

func copyTicket(t *models.Ticket) *models.Ticket {
	c := *t
	if t.UsedAt != nil {
		usedAt := *t.UsedAt
		c.UsedAt = &usedAt
	}
	return &c
}

func (s *memStore) Insert(ctx context.Context, reg *models.Registration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id("reg")
	stored := copyRegistration(reg)
	stored.ID = id
	stored.RegisteredAt = time.Now()
	s.regs[id] = stored
	return id, nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	return copyRegistration(reg), nil
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var regs []*models.Registration
	for _, reg := range s.regs {
		if reg.Purchaser.UserID == userID {
			regs = append(regs, copyRegistration(reg))
		}
	}
	return regs, nil
}

func (s *memStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var regs []*models.Registration
	for _, reg := range s.regs {
		if reg.EventID == eventID {
			regs = append(regs, copyRegistration(reg))
		}
	}
	return regs, nil
}

func (s *memStore) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[id]
	if !ok || reg.Status != models.RegistrationPending {
		return false, nil
	}

	reg.Status = models.RegistrationConfirmed
	reg.PaymentStatus = models.PaymentPaid
	reg.PaidAt = &paidAt
	return true, nil
}

// ticketStore view

type memTickets struct {
	*memStore
}

func (s *memStore) ticketStore() *memTickets {
	return &memTickets{s}
}

func (s *memTickets) Insert(ctx context.Context, ticket *models.Ticket) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tickets {
		if existing.RegistrationID == ticket.RegistrationID && existing.Slot == ticket.Slot {
			return "", status.ErrConflict
		}
		if existing.QRToken == ticket.QRToken {
			return "", status.ErrConflict
		}
	}

	id := s.id("tkt")
	stored := copyTicket(ticket)
	stored.ID = id
	stored.CreatedAt = time.Now()
	s.tickets[id] = stored
	return id, nil
}

func (s *memTickets) FindByID(ctx context.Context, id string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	return copyTicket(ticket), nil
}

func (s *memTickets) FindByToken(ctx context.Context, token string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ticket := range s.tickets {
		if ticket.QRToken == token {
			return copyTicket(ticket), nil
		}
	}
	return nil, status.ErrNotFound
}

func (s *memTickets) ListByRegistration(ctx context.Context, registrationID string) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tickets []*models.Ticket
	for _, ticket := range s.tickets {
		if ticket.RegistrationID == registrationID {
			tickets = append(tickets, copyTicket(ticket))
		}
	}
	return tickets, nil
}

func (s *memTickets) ListByUser(ctx context.Context, userID string) ([]*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tickets []*models.Ticket
	for _, ticket := range s.tickets {
		if ticket.UserID == userID {
			tickets = append(tickets, copyTicket(ticket))
		}
	}
	return tickets, nil
}

func (s *memTickets) Redeem(ctx context.Context, token, validatedBy string, usedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ticket := range s.tickets {
		if ticket.QRToken == token {
			if ticket.Status != models.TicketValid {
				return false, nil
			}
			ticket.Status = models.TicketUsed
			ticket.UsedAt = &usedAt
			ticket.ValidatedBy = validatedBy
			return true, nil
		}
	}
	return false, nil
}

// eventStore view

type memEvents struct {
	*memStore
}

func (s *memStore) eventStore() *memEvents {
	return &memEvents{s}
}

func (s *memEvents) FindByID(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	c := *event
	return &c, nil
}

// user directory view

type memUsers struct {
	*memStore
}

func (s *memStore) userDirectory() *memUsers {
	return &memUsers{s}
}

func (s *memUsers) FindContact(ctx context.Context, userID string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return "", "", status.ErrNotFound
	}
	return user.name, user.email, nil
}

// fakeNotifier records entry confirmations for async assertions.
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []sentMail
	fail  bool
	calls chan struct{}
}

type sentMail struct {
	email      string
	eventTitle string
	ticketCode string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan struct{}, 16)}
}

func (n *fakeNotifier) SendEntryConfirmation(ctx context.Context, email, eventTitle, ticketCode string) error {
	n.mu.Lock()
	n.sent = append(n.sent, sentMail{email: email, eventTitle: eventTitle, ticketCode: ticketCode})
	n.mu.Unlock()

	n.calls <- struct{}{}

	if n.fail {
		return fmt.Errorf("mail provider unavailable")
	}
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// fakePublisher records check-in feed publishes.
type fakePublisher struct {
	mu        sync.Mutex
	published []string
}

func (p *fakePublisher) PublishCheckin(eventID string, payload map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, eventID)
}

// newTestServices wires the full service stack over one shared memStore.
func newTestServices(store *memStore, notifier EntryNotifier, publisher CheckinPublisher) (*RegistrationService, *TicketService, *ValidationService) {
	tickets := NewTicketService(store.ticketStore(), store.eventStore(), store, store.userDirectory())
	registrations := NewRegistrationService(store, store.eventStore(), store.userDirectory(), tickets)
	validation := NewValidationService(store.ticketStore(), store.eventStore(), store, store.userDirectory(), notifier, publisher)
	return registrations, tickets, validation
}
