package stubserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/volunteer-client/internal/domain"
)

// userAccount pairs a volunteer profile with its credential hash.
type userAccount struct {
	profile      domain.UserProfile
	passwordHash string
}

// orgAccount pairs an organisation profile with its credential hash.
type orgAccount struct {
	profile      domain.Organisation
	passwordHash string
}

// Store is the stub's in-memory state: a handful of seeded accounts,
// applications, and per-organisation unread counters. It replaces the
// real platform's database so local development needs no extra processes.
type Store struct {
	mu           sync.Mutex
	users        map[string]userAccount
	orgs         map[string]orgAccount
	applications map[string][]domain.Application
	unread       map[string]int
	bcryptCost   int
}

// NewStore creates an empty store.
func NewStore(bcryptCost int) *Store {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{
		users:        make(map[string]userAccount),
		orgs:         make(map[string]orgAccount),
		applications: make(map[string][]domain.Application),
		unread:       make(map[string]int),
		bcryptCost:   bcryptCost,
	}
}

// Seed populates the store with demo accounts: one volunteer
// (volunteer/lozinka123), one organisation (org@example.com/lozinka123)
// with two pending applications, and one admin (admin/lozinka123).
func (s *Store) Seed() error {
	hash, err := bcrypt.GenerateFromPassword([]byte("lozinka123"), s.bcryptCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.users["volunteer"] = userAccount{
		passwordHash: string(hash),
		profile: domain.UserProfile{
			ID:        uuid.NewString(),
			Username:  "volunteer",
			FirstName: "Mila",
			LastName:  "Petrović",
			Email:     "mila@example.com",
			Title:     "Student",
			Location:  "Novi Sad",
			Age:       23,
			About:     "Volontiram vikendom",
			Skills:    []string{"first-aid", "logistics"},
			Role:      "user",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}
	s.users["admin"] = userAccount{
		passwordHash: string(hash),
		profile: domain.UserProfile{
			ID:        uuid.NewString(),
			Username:  "admin",
			FirstName: "Ana",
			LastName:  "Admin",
			Email:     "admin@example.com",
			Role:      "admin",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	orgID := uuid.NewString()
	s.orgs["org@example.com"] = orgAccount{
		passwordHash: string(hash),
		profile: domain.Organisation{
			ID:       orgID,
			Username: "eko-pokret",
			Name:     "Eko Pokret",
			Email:    "org@example.com",
			Status:   domain.OrganisationStatusApproved,
			Type:     domain.OrganisationTypeOfficial,
		},
	}
	s.applications[orgID] = []domain.Application{
		newSeedApplication("Čišćenje Dunavca", "volunteer", domain.ApplicationStatusPending),
		newSeedApplication("Sadnja drveća", "volunteer", domain.ApplicationStatusPending),
		newSeedApplication("Festival nauke", "volunteer", domain.ApplicationStatusAccepted),
	}
	s.unread[orgID] = 2
	return nil
}

// AuthenticateUser verifies volunteer credentials.
func (s *Store) AuthenticateUser(username, password string) (domain.UserProfile, bool) {
	s.mu.Lock()
	account, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return domain.UserProfile{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(account.passwordHash), []byte(password)) != nil {
		return domain.UserProfile{}, false
	}
	return account.profile, true
}

// AuthenticateOrganisation verifies organisation credentials.
func (s *Store) AuthenticateOrganisation(email, password string) (domain.Organisation, bool) {
	s.mu.Lock()
	account, ok := s.orgs[email]
	s.mu.Unlock()
	if !ok {
		return domain.Organisation{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(account.passwordHash), []byte(password)) != nil {
		return domain.Organisation{}, false
	}
	return account.profile, true
}

// UserByUsername looks up a volunteer profile.
func (s *Store) UserByUsername(username string) (domain.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.users[username]
	return account.profile, ok
}

// OrganisationByUsername looks up an organisation profile by its username.
func (s *Store) OrganisationByUsername(username string) (domain.Organisation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.orgs {
		if account.profile.Username == username {
			return account.profile, true
		}
	}
	return domain.Organisation{}, false
}

// Applications lists every application for the organisation.
func (s *Store) Applications(orgID string) []domain.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	apps := s.applications[orgID]
	out := make([]domain.Application, len(apps))
	copy(out, apps)
	return out
}

// AddApplication records a new pending application and bumps the unread
// counter, mirroring what the platform does before pushing a ws event.
func (s *Store) AddApplication(orgID, eventTitle, username string) domain.Application {
	app := newSeedApplication(eventTitle, username, domain.ApplicationStatusPending)
	s.mu.Lock()
	s.applications[orgID] = append(s.applications[orgID], app)
	s.unread[orgID]++
	s.mu.Unlock()
	return app
}

// UnreadCount returns the organisation's unread-notification counter.
func (s *Store) UnreadCount(orgID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread[orgID]
}

func newSeedApplication(eventTitle, username string, status domain.ApplicationStatus) domain.Application {
	return domain.Application{
		ID:               uuid.NewString(),
		EventTitle:       eventTitle,
		UserInfo:         map[string]any{"username": username},
		OrganisationName: "Eko Pokret",
		Motivation:       "Želim da pomognem",
		Phone:            "+381601234567",
		Status:           status,
		CreatedAt:        time.Now().UTC().Format(time.RFC3339),
	}
}
