package vrf

import (
	"crypto/ecdsa"
	"encoding/binary"
	"time"

	"mutapa-lotto/config"
	"mutapa-lotto/database"
	"mutapa-lotto/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var (
	// ErrSeedAlreadyExists is returned when numbers have already been
	// generated for a draw. A draw commits to exactly one seed, ever.
	ErrSeedAlreadyExists = errors.New("vrf seed already exists for draw")

	// ErrRandomnessUnavailable is returned when proof generation keeps
	// failing after all configured retries. The caller must not proceed
	// with the draw.
	ErrRandomnessUnavailable = errors.New("randomness unavailable")
)

const seedDomain = "mutapa-lotto-draw-seed"

// Interactions of the randomness service with the database. The actual
// logic is in this file and in numbers.go, which are unit-tested.
type vrfDB interface {
	// GetSeed returns the stored seed of a draw or nil if none exists.
	GetSeed(drawID uint64) (*database.VrfSeed, error)
	CreateSeed(seed *database.VrfSeed) error
}

// Result is the full outcome of one number generation: everything an
// auditor needs to re-verify the draw.
type Result struct {
	Numbers   []int
	Seed      common.Hash
	Proof     []byte
	Output    common.Hash
	PublicKey string
}

// Service generates verifiable draw numbers. The proof is a recoverable
// signature over the draw seed, so anyone holding the published public
// key can check it without contacting the service.
type Service struct {
	db         vrfDB
	signingKey *ecdsa.PrivateKey
	publicKey  string
	maxRetries int
	retryDelay time.Duration
}

func NewService(cfg *config.VrfConfig, db vrfDB) (*Service, error) {
	key, err := cfg.GetPrivateKey()
	if err != nil {
		return nil, err
	}
	return &Service{
		db:         db,
		signingKey: key,
		publicKey:  hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)),
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelayMillis) * time.Millisecond,
	}, nil
}

// PublicKey returns the hex-encoded public key the service signs with.
func (s *Service) PublicKey() string {
	return s.publicKey
}

// SeedForDraw derives the seed a draw commits to. It depends only on
// the draw identity, so regenerating it for verification is trivial.
func SeedForDraw(drawID uint64, drawType database.DrawType) common.Hash {
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], drawID)
	return crypto.Keccak256Hash([]byte(seedDomain), idBytes[:], []byte(drawType))
}

// GenerateDrawNumbers derives the winning numbers for a draw and stores
// the seed record. The signature scheme is deterministic, so the same
// draw always yields the same proof and numbers. A draw that already
// has a seed fails with ErrSeedAlreadyExists regardless of how often
// generation is retried.
func (s *Service) GenerateDrawNumbers(drawID uint64, drawType database.DrawType) (*Result, error) {
	existing, err := s.db.GetSeed(drawID)
	if err != nil {
		return nil, errors.Wrap(err, "vrfDB.GetSeed")
	}
	if existing != nil {
		return nil, ErrSeedAlreadyExists
	}

	result, err := s.generate(drawID, drawType)
	if err != nil {
		return nil, err
	}

	err = s.db.CreateSeed(&database.VrfSeed{
		DrawID:    drawID,
		Seed:      result.Seed.Hex(),
		Proof:     hexutil.Encode(result.Proof),
		Output:    result.Output.Hex(),
		PublicKey: result.PublicKey,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "vrfDB.CreateSeed")
	}

	return result, nil
}

func (s *Service) generate(drawID uint64, drawType database.DrawType) (*Result, error) {
	seed := SeedForDraw(drawID, drawType)

	var proof []byte
	var err error
	for attempt := 0; ; attempt++ {
		proof, err = crypto.Sign(seed.Bytes(), s.signingKey)
		if err == nil {
			break
		}
		if attempt >= s.maxRetries {
			logger.Error("Proof generation for draw %d failed after %d attempts: %v", drawID, attempt+1, err)
			return nil, errors.Wrap(ErrRandomnessUnavailable, err.Error())
		}
		logger.Warn("Proof generation for draw %d failed, retrying: %v", drawID, err)
		time.Sleep(s.retryDelay)
	}

	output := crypto.Keccak256Hash(proof)
	return &Result{
		Numbers:   DeriveNumbers(output, drawType),
		Seed:      seed,
		Proof:     proof,
		Output:    output,
		PublicKey: s.publicKey,
	}, nil
}

// VerifyProof checks that proof is a valid signature over the seed by
// the given public key and, when outputHex is non-empty, that the
// output is the hash of the proof. Any mismatch, including a proof with
// a single altered byte, yields false.
func VerifyProof(publicKeyHex string, seed common.Hash, proofHex string, outputHex string) (bool, error) {
	proof, err := hexutil.Decode(proofHex)
	if err != nil {
		return false, errors.Wrap(err, "hexutil.Decode")
	}
	if len(proof) != crypto.SignatureLength {
		return false, nil
	}

	recovered, err := crypto.SigToPub(seed.Bytes(), proof)
	if err != nil {
		// an altered recovery byte makes the proof unrecoverable
		return false, nil
	}
	if hexutil.Encode(crypto.FromECDSAPub(recovered)) != publicKeyHex {
		return false, nil
	}

	if len(outputHex) > 0 && crypto.Keccak256Hash(proof) != common.HexToHash(outputHex) {
		return false, nil
	}
	return true, nil
}

// VerifySeed checks a stored seed record end to end: the recorded seed
// must match the draw identity, the proof must verify against the
// recorded public key and the output must be the hash of the proof.
func VerifySeed(record *database.VrfSeed, drawType database.DrawType) (bool, error) {
	if SeedForDraw(record.DrawID, drawType) != common.HexToHash(record.Seed) {
		return false, nil
	}
	return VerifyProof(record.PublicKey, common.HexToHash(record.Seed), record.Proof, record.Output)
}
