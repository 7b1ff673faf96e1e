package plugins

import (
	"errors"
	"testing"

	"github.com/harshilnayi/BlockScope/internal/model"
	"github.com/harshilnayi/BlockScope/internal/solidity"
)

func scan(t *testing.T, d Detector, src string) []model.Finding {
	t.Helper()
	u, err := solidity.Build(src)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var out []model.Finding
	for _, c := range u.Contracts {
		fs, err := Run(d, c)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		out = append(out, fs...)
	}
	return out
}

func TestReentrancyOrder(t *testing.T) {
	vulnerable := `pragma solidity ^0.8.0;
contract Bank {
    mapping(address => uint256) balances;
    function withdraw(address payable to, uint256 amount) external {
        (bool ok, ) = to.call{value: amount}("");
        require(ok);
        balances[to] -= amount;
    }
}`
	fs := scan(t, &solidityReentrancy{}, vulnerable)
	if len(fs) != 1 {
		t.Fatalf("findings = %d, want 1", len(fs))
	}
	f := fs[0]
	if f.RuleID != "SOL-REENTRANCY" || f.Kind != model.KindReentrancy || f.Lines.Start != 5 || f.Function != "withdraw" || f.Contract != "Bank" {
		t.Fatalf("unexpected finding %+v", f)
	}
	if f.Evidence["state_write"] != "balances" {
		t.Fatalf("evidence = %v", f.Evidence)
	}

	reordered := `pragma solidity ^0.8.0;
contract Bank {
    mapping(address => uint256) balances;
    function withdraw(address payable to, uint256 amount) external {
        balances[to] -= amount;
        (bool ok, ) = to.call{value: amount}("");
        require(ok);
    }
}`
	if fs := scan(t, &solidityReentrancy{}, reordered); len(fs) != 0 {
		t.Fatalf("reordered findings = %d, want 0", len(fs))
	}

	guarded := `pragma solidity ^0.8.0;
contract Bank {
    mapping(address => uint256) balances;
    function withdraw(address payable to, uint256 amount) external nonReentrant {
        (bool ok, ) = to.call{value: amount}("");
        require(ok);
        balances[to] -= amount;
    }
}`
	if fs := scan(t, &solidityReentrancy{}, guarded); len(fs) != 0 {
		t.Fatalf("guarded findings = %d, want 0", len(fs))
	}
}

func TestDetectors(t *testing.T) {
	cases := []struct {
		name      string
		detector  Detector
		src       string
		functions []string
	}{
		{
			name:     "unchecked low-level call",
			detector: &solidityUncheckedCalls{},
			src: `contract C {
    function f(address t) external { t.call(""); }
    function g(address t) external { (bool ok, ) = t.call(""); require(ok); }
}`,
			functions: []string{"f"},
		},
		{
			name:     "access control",
			detector: &solidityAccessControl{},
			src: `contract Owned {
    address owner;
    uint256 fee;
    modifier onlyOwner() { require(msg.sender == owner); _; }
    function setFee(uint256 f) external onlyOwner { fee = f; }
    function setFeeUnsafe(uint256 f) external { fee = f; }
    function deposit() external payable { }
}`,
			functions: []string{"setFeeUnsafe"},
		},
		{
			name:     "ownership takeover",
			detector: &solidityAccessControl{},
			src: `contract Wallet {
    address public owner;
    function setOwner(address o) public { owner = o; }
    function rename(address o) public { if (msg.sender != owner) revert(); owner = o; }
}`,
			functions: []string{"setOwner"},
		},
		{
			name:     "timestamp",
			detector: &solidityTimestamp{},
			src: `contract Lottery {
    address winner;
    function play() external {
        if (block.timestamp % 15 == 0) {
            winner = msg.sender;
        }
    }
    function ready() external view returns (bool) { return block.timestamp > 0; }
}`,
			functions: []string{"play"},
		},
		{
			name:     "legacy arithmetic",
			detector: &solidityIntegerOverflow{},
			src: `pragma solidity ^0.6.12;
contract Token {
    mapping(address => uint256) balances;
    uint256 total;
    function mint(address to, uint256 amount) external {
        balances[to] += amount;
        total = total + amount;
    }
}`,
			functions: []string{"mint", "mint"},
		},
		{
			name:     "legacy arithmetic with SafeMath",
			detector: &solidityIntegerOverflow{},
			src: `pragma solidity ^0.6.12;
contract Token {
    using SafeMath for uint256;
    uint256 total;
    function mint(uint256 amount) external { total += amount; }
}`,
		},
		{
			name:     "unchecked block",
			detector: &solidityIntegerOverflow{},
			src: `pragma solidity ^0.8.0;
contract C {
    uint256 n;
    function f() external { unchecked { n++; } }
    function g() external { n++; }
}`,
			functions: []string{"f"},
		},
		{
			name:     "delegatecall",
			detector: &solidityDelegatecallUnsafe{},
			src: `contract Proxy {
    address impl;
    address owner;
    function exec(address target, bytes calldata data) external {
        target.delegatecall(data);
    }
    function init() external {
        require(msg.sender == owner);
        (bool ok, ) = impl.delegatecall(abi.encodeWithSignature("init()"));
        require(ok);
    }
}`,
			functions: []string{"exec"},
		},
		{
			name:     "flash loan",
			detector: &solidityFlashLoan{},
			src: `interface IPair { function getReserves() external view returns (uint112, uint112, uint32); }
contract Lender {
    IPair pair;
    mapping(address => uint256) debt;
    function borrow(uint256 amount) external {
        (uint112 r0, uint112 r1, ) = pair.getReserves();
        debt[msg.sender] += amount * r1 / r0;
    }
    function onFlashLoan(address initiator, address token, uint256 amount, uint256 fee, bytes calldata data) external returns (bytes32) {
        debt[initiator] = 0;
        return keccak256("ERC3156FlashBorrower.onFlashLoan");
    }
}`,
			functions: []string{"borrow", "onFlashLoan"},
		},
		{
			name:     "unchecked erc20",
			detector: &solidityUncheckedERC20{},
			src: `interface IERC20 { function transfer(address, uint256) external returns (bool); }
contract Pay {
    IERC20 token;
    function pay(address to, uint256 amt) external { token.transfer(to, amt); }
    function payChecked(address to, uint256 amt) external { require(token.transfer(to, amt)); }
}`,
			functions: []string{"pay"},
		},
		{
			name:     "tx.origin",
			detector: &solidityTxOrigin{},
			src: `contract W {
    address owner;
    function w() external { require(tx.origin == owner); }
    function x() external { require(tx.origin == msg.sender); }
}`,
			functions: []string{"w"},
		},
		{
			name:     "selfdestruct",
			detector: &soliditySelfdestruct{},
			src: `contract K {
    address owner;
    function kill() external { selfdestruct(payable(owner)); }
    function safeKill() external { require(msg.sender == owner); selfdestruct(payable(owner)); }
    function viaHelper() external { _destroy(); }
    function _destroy() internal { selfdestruct(payable(msg.sender)); }
}`,
			functions: []string{"kill", "viaHelper"},
		},
		{
			name:     "transfer and send",
			detector: &solidityTransferSend{},
			src: `contract P {
    function f(address payable a) external { a.transfer(1); }
    function g(address payable a) external { (bool ok, ) = a.call{value: 1}(""); require(ok); }
}`,
			functions: []string{"f"},
		},
		{
			name:     "randomness",
			detector: &solidityRandomness{},
			src: `contract Dice {
    uint256 seed;
    function roll() external returns (uint256) {
        seed = uint256(keccak256(abi.encodePacked(block.prevrandao, msg.sender))) % 6;
        return seed;
    }
    function stamp() external view returns (uint256) { return block.timestamp; }
    function pick(uint256 n) external view returns (uint256) { return uint256(blockhash(block.number - 1)) % n; }
}`,
			functions: []string{"roll", "pick"},
		},
		{
			name:     "floating pragma",
			detector: &solidityFloatingPragma{},
			src: `pragma solidity ^0.8.0;
contract A { function f() external {} }
contract B { function g() external {} }`,
			functions: []string{""},
		},
		{
			name:     "pragma range",
			detector: &solidityFloatingPragma{},
			src: `pragma solidity >=0.6.0 <0.9.0;
contract A { function f() external {} }`,
			functions: []string{""},
		},
		{
			name:     "pinned pragma",
			detector: &solidityFloatingPragma{},
			src: `pragma solidity 0.8.19;
contract A { function f() external {} }`,
		},
		{
			name:     "unbounded loop",
			detector: &solidityUnboundedLoops{},
			src: `contract Airdrop {
    address[] users;
    uint256 total;
    function payAll() external {
        for (uint256 i = 0; i < users.length; i++) { total += i; }
    }
    function paySome(address[] calldata list) external {
        for (uint256 i = 0; i < list.length && i < 50; i++) { total += i; }
    }
    function payList(address[] calldata list) public {
        uint256 i;
        while (i < list.length) { total += i; i++; }
    }
    function _sweep() internal {
        for (uint256 i = 0; i < users.length; i++) { total += i; }
    }
}`,
			functions: []string{"payAll", "payList"},
		},
		{
			name:     "mev swap",
			detector: &solidityMEV{},
			src: `interface IRouter { function swapExactTokensForTokens(uint256, uint256, address[] calldata, address, uint256) external returns (uint256[] memory); }
contract Vault {
    IRouter router;
    function dump(uint256 amt, address[] calldata path) external {
        router.swapExactTokensForTokens(amt, 0, path, address(this), block.timestamp + 300);
    }
    function late(uint256 amt, uint256 minOut, address[] calldata path) external {
        router.swapExactTokensForTokens(amt, minOut, path, address(this), block.timestamp);
    }
    function safe(uint256 amt, uint256 minOut, address[] calldata path, uint256 deadline) external {
        router.swapExactTokensForTokens(amt, minOut, path, address(this), deadline);
    }
}`,
			functions: []string{"dump", "late"},
		},
		{
			name:     "proxy upgrade",
			detector: &solidityProxyUpgrade{},
			src: `contract Impl {
    address owner;
    address implementation;
    modifier onlyOwner() { require(msg.sender == owner); _; }
    function upgradeTo(address next) external { implementation = next; }
    function upgradeToAndCall(address next, bytes calldata data) external onlyOwner { implementation = next; }
    function _authorizeUpgrade(address next) internal {}
}`,
			functions: []string{"upgradeTo", "_authorizeUpgrade"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := scan(t, tc.detector, tc.src)
			if len(fs) != len(tc.functions) {
				t.Fatalf("findings = %d (%+v), want %d", len(fs), fs, len(tc.functions))
			}
			for i, f := range fs {
				if f.Function != tc.functions[i] {
					t.Errorf("finding %d in %s, want %s", i, f.Function, tc.functions[i])
				}
				if f.RuleID != tc.detector.Meta().ID || f.Source != SourceOf(f.RuleID) || f.Fingerprint == "" || f.Snippet == "" {
					t.Errorf("finding %d missing shared fields: %+v", i, f)
				}
			}
		})
	}
}

type panicky struct{}

func (panicky) Meta() model.RuleMeta { return model.RuleMeta{ID: "TEST-PANIC"} }
func (panicky) Scan(*solidity.Contract) ([]model.Finding, error) {
	panic("boom")
}

func TestRunRecoversPanics(t *testing.T) {
	u, err := solidity.Build("contract C {}")
	if err != nil {
		t.Fatal(err)
	}
	fs, err := Run(panicky{}, u.Contracts[0])
	var de *DetectorError
	if !errors.As(err, &de) || de.RuleID != "TEST-PANIC" || fs != nil {
		t.Fatalf("Run = %v, %v", fs, err)
	}
}

func TestBuiltinTable(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for _, d := range Builtin() {
		m := d.Meta()
		if seen[m.ID] {
			t.Fatalf("duplicate rule %s", m.ID)
		}
		if m.ID < prev {
			t.Fatalf("builtin table not sorted at %s", m.ID)
		}
		if m.Kind == "" || m.Severity == "" || m.Confidence <= 0 || m.Confidence > 1 {
			t.Fatalf("incomplete metadata %+v", m)
		}
		seen[m.ID], prev = true, m.ID
	}
	if len(seen) != 16 {
		t.Fatalf("builtin detectors = %d, want 16", len(seen))
	}
	r := NewRegistry()
	r.RegisterBuiltin()
	if got := r.Select([]string{"sol-tx-origin"}); len(got) != 1 || got[0].Meta().ID != "SOL-TX-ORIGIN" {
		t.Fatalf("Select = %v", got)
	}
}
