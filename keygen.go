package pob

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// maxScalarDraws bounds redraws of out-of-range scalars. A healthy source
// produces an invalid scalar with probability ~2^-128 per draw.
const maxScalarDraws = 8

var secp256k1N = crypto.S256().Params().N

// KeyPair is a generated secp256k1 key and its Ethereum address.
//
// Formatting and logging a KeyPair only ever show the address; the private
// key is reachable through PrivateKeyHex alone.
type KeyPair struct {
	Address    common.Address
	PrivateKey *ecdsa.PrivateKey
}

// PrivateKeyHex returns the 0x-prefixed 32-byte private key.
func (k KeyPair) PrivateKeyHex() string {
	return hexutil.Encode(crypto.FromECDSA(k.PrivateKey))
}

// String implements fmt.Stringer.
func (k KeyPair) String() string {
	return "KeyPair{" + k.Address.Hex() + "}"
}

// GoString implements fmt.GoStringer.
func (k KeyPair) GoString() string {
	return k.String()
}

// Format implements fmt.Formatter so that %+v and friends cannot reach the
// private key field.
func (k KeyPair) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, k.String())
}

// LogValue implements slog.LogValuer.
func (k KeyPair) LogValue() slog.Value {
	return slog.StringValue(k.Address.Hex())
}

// MarshalJSON emits the address only.
func (k KeyPair) MarshalJSON() ([]byte, error) {
	return []byte(`{"address":"` + k.Address.Hex() + `"}`), nil
}

// KeyBatch is an ordered, immutable sequence of key pairs.
type KeyBatch struct {
	pairs []KeyPair
}

// Len returns the number of pairs in the batch.
func (b *KeyBatch) Len() int {
	return len(b.pairs)
}

// Pair returns the i-th pair.
func (b *KeyBatch) Pair(i int) KeyPair {
	return b.pairs[i]
}

// Addresses returns the public addresses in generation order.
func (b *KeyBatch) Addresses() []common.Address {
	out := make([]common.Address, len(b.pairs))
	for i, p := range b.pairs {
		out[i] = p.Address
	}
	return out
}

// PrivateKeyHexes returns the hex private keys in generation order.
func (b *KeyBatch) PrivateKeyHexes() []string {
	out := make([]string, len(b.pairs))
	for i, p := range b.pairs {
		out[i] = p.PrivateKeyHex()
	}
	return out
}

// LogValue implements slog.LogValuer.
func (b *KeyBatch) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("count", len(b.pairs)))
}

// Generator produces batches of independent key pairs.
type Generator struct {
	entropy     io.Reader
	workers     int
	maxQuantity int
	mu          sync.Mutex
}

// NewGenerator creates a generator reading from crypto/rand.
func NewGenerator(cfg Config) *Generator {
	return NewGeneratorWithEntropy(cfg, rand.Reader)
}

// NewGeneratorWithEntropy creates a generator reading scalars from r.
func NewGeneratorWithEntropy(cfg Config, r io.Reader) *Generator {
	cfg = cfg.WithDefaults()
	return &Generator{
		entropy:     r,
		workers:     cfg.Workers,
		maxQuantity: cfg.MaxQuantity,
	}
}

// Generate produces exactly quantity key pairs.
func (g *Generator) Generate(quantity int) (*KeyBatch, error) {
	return g.GenerateContext(context.Background(), quantity)
}

// GenerateContext produces exactly quantity key pairs in generation order.
//
// Scalars are drawn sequentially from the entropy source, then expanded to
// key pairs on up to g.workers goroutines. Any failure discards the batch.
func (g *Generator) GenerateContext(ctx context.Context, quantity int) (*KeyBatch, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: %d is negative", ErrInvalidQuantity, quantity)
	}
	if quantity > g.maxQuantity {
		return nil, fmt.Errorf("%w: %d exceeds limit of %d", ErrInvalidQuantity, quantity, g.maxQuantity)
	}
	if quantity == 0 {
		return &KeyBatch{pairs: []KeyPair{}}, nil
	}

	scalars, err := g.drawScalars(quantity)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, s := range scalars {
			clear(s)
		}
	}()

	pairs := make([]KeyPair, quantity)
	errs := make([]error, quantity)

	workers := g.workers
	if workers > quantity {
		workers = quantity
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				key, err := crypto.ToECDSA(scalars[idx])
				if err != nil {
					errs[idx] = WrapBatchError("generate", idx, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err))
					continue
				}
				pairs[idx] = KeyPair{
					Address:    crypto.PubkeyToAddress(key.PublicKey),
					PrivateKey: key,
				}
			}
		}()
	}

	var ctxErr error
	for i := 0; i < quantity; i++ {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
		case jobs <- i:
		}
		if ctxErr != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &KeyBatch{pairs: pairs}, nil
}

// drawScalars reads quantity valid secp256k1 scalars from the entropy source.
func (g *Generator) drawScalars(quantity int) ([][]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	scalars := make([][]byte, quantity)
	for i := range scalars {
		s, err := g.drawScalar()
		if err != nil {
			return nil, WrapBatchError("generate", i, err)
		}
		scalars[i] = s
	}
	return scalars, nil
}

func (g *Generator) drawScalar() ([]byte, error) {
	buf := make([]byte, PrivateKeyLength)
	for attempt := 0; attempt < maxScalarDraws; attempt++ {
		if _, err := io.ReadFull(g.entropy, buf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		d := new(big.Int).SetBytes(buf)
		if d.Sign() > 0 && d.Cmp(secp256k1N) < 0 {
			return buf, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid scalar after %d draws", ErrSourceUnavailable, maxScalarDraws)
}

// ParseQuantity parses an untyped quantity, rejecting negative and
// non-integer input.
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidQuantity, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidQuantity, n)
	}
	return n, nil
}

// DeriveAddress returns the address controlled by a hex private key,
// with or without the 0x prefix.
func DeriveAddress(hexKey string) (common.Address, error) {
	key, err := ParsePrivateKey(hexKey)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}

// ParsePrivateKey decodes a hex private key, with or without the 0x prefix.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"), "0X")
	if len(raw) != 2*PrivateKeyLength {
		return nil, fmt.Errorf("%w: expected %d hex characters", ErrInvalidPrivateKey, 2*PrivateKeyLength)
	}
	key, err := crypto.HexToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return key, nil
}
