package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/set-night/clickpulse/internal/domain"
)

// WalletVerifier checks personal_sign (EIP-191) signatures.
type WalletVerifier struct{}

func (WalletVerifier) VerifySignature(address, message, signature string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: malformed address", domain.ErrSignatureInvalid)
	}
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: malformed signature", domain.ErrSignatureInvalid)
	}
	// wallets put 27/28 in V, crypto expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSignatureInvalid, err)
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(address) {
		return fmt.Errorf("%w: signer does not match address", domain.ErrSignatureInvalid)
	}
	return nil
}
