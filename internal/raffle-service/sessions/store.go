package sessions

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle"
)

var ErrNotFound = errors.New("session not found")

// Factory cria a sessão de domínio para um id novo.
type Factory func(id string) *raffle.Session

// Store é o registro em memória das sessões, limitado em tamanho e com TTL.
// Cada Get renova a posição da sessão no LRU, mas não o prazo de expiração.
type Store struct {
	lru     *expirable.LRU[string, *raffle.Session]
	factory Factory
}

// New cria o registro. Toda sessão que sai do registro (capacidade, expiração
// ou Delete) é desconectada; onEvict (opcional) é chamado em seguida.
func New(size int, ttl time.Duration, factory Factory, onEvict func(id string)) *Store {
	cb := func(id string, sess *raffle.Session) {
		sess.Disconnect()
		if onEvict != nil {
			onEvict(id)
		}
	}
	return &Store{
		lru:     expirable.NewLRU[string, *raffle.Session](size, cb, ttl),
		factory: factory,
	}
}

// Create registra uma sessão nova com id aleatório.
func (s *Store) Create() *raffle.Session {
	id := uuid.NewString()
	sess := s.factory(id)
	s.lru.Add(id, sess)
	return sess
}

func (s *Store) Get(id string) (*raffle.Session, error) {
	sess, ok := s.lru.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete remove a sessão; o callback de remoção a desconecta.
func (s *Store) Delete(id string) bool {
	return s.lru.Remove(id)
}

func (s *Store) Len() int { return s.lru.Len() }
