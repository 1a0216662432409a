package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/repository"
)

// SignInService exchanges a wallet signature over config.SignInMessage for a
// bearer token. Requesters and workers get tokens from separate issuers.
type SignInService struct {
	store     repository.Store
	verifier  SignatureVerifier
	requester TokenIssuer
	worker    TokenIssuer
}

func NewSignInService(store repository.Store, verifier SignatureVerifier, requester, worker TokenIssuer) *SignInService {
	return &SignInService{store: store, verifier: verifier, requester: requester, worker: worker}
}

type WorkerSession struct {
	Token  string
	Worker *domain.Worker
}

func (s *SignInService) SignInRequester(ctx context.Context, address, signature string) (string, error) {
	address, err := s.verify(address, signature)
	if err != nil {
		return "", err
	}
	user, err := s.store.UpsertUser(ctx, address)
	if err != nil {
		return "", fmt.Errorf("upsert user: %w", err)
	}
	token, err := s.requester.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *SignInService) SignInWorker(ctx context.Context, address, signature string) (*WorkerSession, error) {
	address, err := s.verify(address, signature)
	if err != nil {
		return nil, err
	}
	worker, err := s.store.UpsertWorker(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("upsert worker: %w", err)
	}
	token, err := s.worker.Issue(worker.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &WorkerSession{Token: token, Worker: worker}, nil
}

func (s *SignInService) verify(address, signature string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" || strings.TrimSpace(signature) == "" {
		return "", fmt.Errorf("%w: address and signature are required", domain.ErrValidation)
	}
	if err := s.verifier.VerifySignature(address, config.SignInMessage, signature); err != nil {
		return "", err
	}
	return strings.ToLower(address), nil
}
