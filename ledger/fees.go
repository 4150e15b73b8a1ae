package ledger

import "github.com/holiman/uint256"

// feeNumerator/feeDenominator encode the fixed 3% validator fee
// (spec.md §1 "fixed 3% formula") as exact integer arithmetic instead of
// the original's 1.03*amount float multiplication.
const (
	feeNumerator   = 30
	feeDenominator = 1000
)

// TotalCharge computes, in milli-BCC, how much a sender is debited for a
// transaction and how much of that is the validator's fee.
//
// For a stake update (isStake == true) there is no fee: totalCharge is
// exactly amountMilli, per spec.md §4.2 rule 4 ("if receiver == '0':
// total_charge = amount"). For a regular transfer,
// totalCharge = amountMilli + fee, fee = floor(amountMilli*0.03) +
// messageLen*MilliPerBCC, matching spec.md's
// "⌊1.03·amount⌋ + len(message)" formula scaled to milli-BCC and with the
// rounding frozen to integer truncation (DESIGN.md's fee-arithmetic
// determinism resolution).
func TotalCharge(amountMilli *uint256.Int, messageLen int, isStake bool) (totalCharge, fee *uint256.Int) {
	if isStake {
		return new(uint256.Int).Set(amountMilli), uint256.NewInt(0)
	}
	num := new(uint256.Int).Mul(amountMilli, uint256.NewInt(feeNumerator))
	fee = new(uint256.Int).Div(num, uint256.NewInt(feeDenominator))
	msgCost := uint256.NewInt(uint64(messageLen) * MilliPerBCC)
	fee = fee.Add(fee, msgCost)
	totalCharge = new(uint256.Int).Add(amountMilli, fee)
	return totalCharge, fee
}

// ToMilli converts a whole-BCC signed amount into its absolute milli-BCC
// magnitude, for use with TotalCharge/Account balance arithmetic. Callers
// handle the sign themselves (spec.md §4.2 rule 3: negative amounts only
// ever represent a stake refund magnitude).
func ToMilli(amount int64) *uint256.Int {
	if amount < 0 {
		amount = -amount
	}
	return new(uint256.Int).Mul(uint256.NewInt(uint64(amount)), uint256.NewInt(MilliPerBCC))
}
