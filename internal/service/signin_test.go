package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/domain"
	"github.com/set-night/clickpulse/internal/repository"
)

// fakeVerifier accepts "signed:<address>" over the sign-in message.
type fakeVerifier struct{}

func (fakeVerifier) VerifySignature(address, message, signature string) error {
	if message != config.SignInMessage || !strings.EqualFold(signature, "signed:"+address) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

type prefixIssuer string

func (p prefixIssuer) Issue(subject int64) (string, error) {
	return fmt.Sprintf("%s-%d", p, subject), nil
}

func TestSignIn(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewSignInService(store, fakeVerifier{}, prefixIssuer("user"), prefixIssuer("worker"))
	ctx := context.Background()

	token, err := svc.SignInRequester(ctx, "0xABC", "signed:0xABC")
	if err != nil {
		t.Fatalf("SignInRequester: %v", err)
	}
	again, err := svc.SignInRequester(ctx, "0xabc", "signed:0xabc")
	if err != nil {
		t.Fatalf("second SignInRequester: %v", err)
	}
	if token != again {
		t.Fatalf("tokens %q and %q, want the same requester", token, again)
	}

	sess, err := svc.SignInWorker(ctx, "0xABC", "signed:0xABC")
	if err != nil {
		t.Fatalf("SignInWorker: %v", err)
	}
	if !strings.HasPrefix(sess.Token, "worker-") || sess.Worker.Address != "0xabc" {
		t.Fatalf("session = %+v, token %q", sess.Worker, sess.Token)
	}
}

func TestSignInRejects(t *testing.T) {
	tests := []struct {
		name      string
		address   string
		signature string
		wantErr   error
	}{
		{name: "empty address", address: "", signature: "signed:", wantErr: domain.ErrValidation},
		{name: "empty signature", address: "0xabc", signature: "", wantErr: domain.ErrValidation},
		{name: "signed by someone else", address: "0xabc", signature: "signed:0xdef", wantErr: domain.ErrSignatureInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			svc := NewSignInService(store, fakeVerifier{}, prefixIssuer("user"), prefixIssuer("worker"))
			if _, err := svc.SignInRequester(context.Background(), tt.address, tt.signature); !errors.Is(err, tt.wantErr) {
				t.Fatalf("SignInRequester err = %v, want %v", err, tt.wantErr)
			}
			if _, err := svc.SignInWorker(context.Background(), tt.address, tt.signature); !errors.Is(err, tt.wantErr) {
				t.Fatalf("SignInWorker err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
