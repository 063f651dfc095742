package crypto

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey      = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testExchange = "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"
)

func testOrder() OrderPayload {
	return OrderPayload{
		Salt:          "1700000000000",
		Maker:         "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		Signer:        "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23",
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "123456789",
		MakerAmount:   "10000000",
		TakerAmount:   "5500000",
		Expiration:    "1700000300",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          1,
		SignatureType: 0,
	}
}

func TestNewSigner_DerivesAddress(t *testing.T) {
	s, err := NewSigner(testKey, 137, common.HexToAddress(testExchange))
	require.NoError(t, err)

	pk, err := ethcrypto.HexToECDSA(strings.TrimPrefix(testKey, "0x"))
	require.NoError(t, err)
	assert.Equal(t, ethcrypto.PubkeyToAddress(pk.PublicKey), s.Address())
	assert.NotEqual(t, common.Address{}, s.Address())
}

func TestNewSigner_RejectsBadKey(t *testing.T) {
	_, err := NewSigner("zz", 137, common.HexToAddress(testExchange))
	assert.Error(t, err)
}

func TestSignOrder_ProducesValidSignature(t *testing.T) {
	s, err := NewSigner(testKey, 137, common.HexToAddress(testExchange))
	require.NoError(t, err)

	sig, err := s.SignOrder(testOrder())
	require.NoError(t, err)

	// 0x prefix plus 65 bytes hex-encoded.
	require.Len(t, sig, 132)
	assert.Equal(t, "0x", sig[:2])

	v := sig[len(sig)-2:]
	assert.Contains(t, []string{"1b", "1c"}, v, "recovery byte must be 27 or 28")
}

func TestSignOrder_Deterministic(t *testing.T) {
	s, err := NewSigner(testKey, 137, common.HexToAddress(testExchange))
	require.NoError(t, err)

	first, err := s.SignOrder(testOrder())
	require.NoError(t, err)
	second, err := s.SignOrder(testOrder())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSignOrder_DomainSeparation(t *testing.T) {
	polygon, err := NewSigner(testKey, 137, common.HexToAddress(testExchange))
	require.NoError(t, err)
	other, err := NewSigner(testKey, 1, common.HexToAddress(testExchange))
	require.NoError(t, err)

	a, err := polygon.SignOrder(testOrder())
	require.NoError(t, err)
	b, err := other.SignOrder(testOrder())
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "chain ID must change the digest")
}

func TestSignOrder_RejectsNonNumericFields(t *testing.T) {
	s, err := NewSigner(testKey, 137, common.HexToAddress(testExchange))
	require.NoError(t, err)

	bad := testOrder()
	bad.TokenID = "abc"
	_, err = s.SignOrder(bad)
	assert.Error(t, err)
}
