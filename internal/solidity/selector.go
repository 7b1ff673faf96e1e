package solidity

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Selector returns the 4-byte function selector for name and canonical ABI argument
// types, hex encoded with a 0x prefix.
func Selector(name string, types []string) string {
	sig := name + "(" + strings.Join(types, ",") + ")"
	return hexutil.Encode(crypto.Keccak256([]byte(sig))[:4])
}
